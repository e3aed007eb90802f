package routes

import (
	"influencia-server/services"
	"influencia-server/utils"

	"github.com/kataras/iris/v12"
)

// AdminRoutes serves moderation: the dashboard aggregates, sponsor
// approval, and the flag listings.
type AdminRoutes struct {
	accounts *services.AccountService
	reports  *services.ReportsService
}

func NewAdminRoutes(accounts *services.AccountService, reports *services.ReportsService) *AdminRoutes {
	return &AdminRoutes{accounts: accounts, reports: reports}
}

func (r *AdminRoutes) Login(ctx iris.Context) {
	loginHandler(r.accounts)(ctx)
}

func (r *AdminRoutes) Register(ctx iris.Context) {
	var input services.RegisterAdminInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user, err := r.accounts.RegisterAdmin(ctx.Request().Context(), input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "User registered successfully", "user": user.Serialize()})
}

// GET /dashboard/data — the counter block, cached under one global key.
func (r *AdminRoutes) Dashboard(ctx iris.Context) {
	payload, err := r.reports.AdminDashboard(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}

// GET /dashboard/graph-data — chart breakdowns, computed fresh.
func (r *AdminRoutes) GraphData(ctx iris.Context) {
	data, err := r.reports.GraphData(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"data": data})
}

func (r *AdminRoutes) PendingSponsors(ctx iris.Context) {
	payload, err := r.accounts.PendingSponsors(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}

func (r *AdminRoutes) ApproveSponsor(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := r.accounts.ApproveSponsor(ctx.Request().Context(), id); err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Sponsor approved successfully"})
}

func (r *AdminRoutes) RejectSponsor(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := r.accounts.RejectSponsor(ctx.Request().Context(), id); err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Sponsor rejected"})
}

func (r *AdminRoutes) UserFlags(ctx iris.Context) {
	rows, err := r.accounts.UserFlags(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"flags": rows})
}

func (r *AdminRoutes) CampaignFlags(ctx iris.Context) {
	rows, err := r.accounts.CampaignFlags(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"flags": rows})
}
