package routes

import (
	"strconv"

	"influencia-server/services"
	"influencia-server/utils"

	"github.com/kataras/iris/v12"
)

// SponsorRoutes serves everything a logged-in sponsor does: campaign CRUD,
// ad-request lifecycle commands, flags and the CSV export. The services are
// injected once at construction.
type SponsorRoutes struct {
	accounts  *services.AccountService
	campaigns *services.CampaignService
	lifecycle *services.Lifecycle
}

func NewSponsorRoutes(accounts *services.AccountService, campaigns *services.CampaignService, lifecycle *services.Lifecycle) *SponsorRoutes {
	return &SponsorRoutes{accounts: accounts, campaigns: campaigns, lifecycle: lifecycle}
}

func paramID(ctx iris.Context, name string) (uint, bool) {
	raw := ctx.Params().Get(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(ctx, iris.StatusUnprocessableEntity, "invalid_id", "path id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func (r *SponsorRoutes) Register(ctx iris.Context) {
	var input services.RegisterSponsorInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	sponsor, err := r.accounts.RegisterSponsor(ctx.Request().Context(), input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "New Sponsor registered successfully", "sponsor": sponsor.Serialize()})
}

func (r *SponsorRoutes) Login(ctx iris.Context) {
	loginHandler(r.accounts)(ctx)
}

// GET /dashboard/data — the sponsor's campaign list, served from cache when
// warm.
func (r *SponsorRoutes) Dashboard(ctx iris.Context) {
	payload, err := r.campaigns.Dashboard(ctx.Request().Context(), utils.ContextUserID(ctx))
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}

func (r *SponsorRoutes) AddCampaign(ctx iris.Context) {
	var input services.CampaignInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result, err := r.campaigns.Create(ctx.Request().Context(), utils.ContextUserID(ctx), input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}

	response := iris.Map{
		"message":  "New campaign added successfully",
		"success":  true,
		"campaign": result.Campaign.Serialize(),
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(response)
}

func (r *SponsorRoutes) GetCampaign(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	campaign, err := r.campaigns.Get(ctx.Request().Context(), id)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"campaign": campaign.Serialize()})
}

func (r *SponsorRoutes) EditCampaign(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input services.CampaignInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result, err := r.campaigns.Update(ctx.Request().Context(), utils.ContextUserID(ctx), id, input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}

	response := iris.Map{
		"message":  "Campaign updated successfully",
		"success":  true,
		"campaign": result.Campaign.Serialize(),
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	ctx.JSON(response)
}

func (r *SponsorRoutes) DeleteCampaign(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := r.campaigns.Delete(ctx.Request().Context(), utils.ContextUserID(ctx), id); err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Campaign deleted successfully", "success": true})
}

// GET /export_campaigns — CSV download of the sponsor's campaigns.
func (r *SponsorRoutes) ExportCampaigns(ctx iris.Context) {
	data, err := r.campaigns.ExportCSV(ctx.Request().Context(), utils.ContextUserID(ctx))
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename=campaigns.csv")
	ctx.ContentType("text/csv")
	ctx.Write(data)
}

// GET /adrequest_data/{campaign_id} — the joined ad-request view.
func (r *SponsorRoutes) AdRequestData(ctx iris.Context) {
	id, ok := paramID(ctx, "campaign_id")
	if !ok {
		return
	}
	payload, err := r.lifecycle.JoinedView(ctx.Request().Context(), id)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}

func (r *SponsorRoutes) AddAdRequest(ctx iris.Context) {
	var input services.CreateAdRequestInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	adRequest, err := r.lifecycle.Create(ctx.Request().Context(), input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"message":    "New ad_request added successfully",
		"success":    true,
		"ad_request": adRequest.Serialize(),
	})
}

func (r *SponsorRoutes) EditAdRequest(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input services.UpdateAdRequestInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	adRequest, err := r.lifecycle.Update(ctx.Request().Context(), id, input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{
		"message":    "Ad request updated successfully",
		"success":    true,
		"ad_request": adRequest.Serialize(),
	})
}

func (r *SponsorRoutes) DeleteAdRequest(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := r.lifecycle.Delete(ctx.Request().Context(), id); err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Ad request deleted successfully", "success": true})
}

func (r *SponsorRoutes) respond(ctx iris.Context, decision string) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	adRequest, err := r.lifecycle.Respond(ctx.Request().Context(), id, utils.ContextUserID(ctx), decision)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{
		"message":    "Ad request " + decision,
		"ad_request": adRequest.Serialize(),
	})
}

func (r *SponsorRoutes) ApproveAdRequest(ctx iris.Context) {
	r.respond(ctx, "accepted")
}

func (r *SponsorRoutes) RejectAdRequest(ctx iris.Context) {
	r.respond(ctx, "rejected")
}

type flagInput struct {
	Reason string `json:"reason"`
}

func (r *SponsorRoutes) FlagInfluencer(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input flagInput
	ctx.ReadJSON(&input)

	err := r.accounts.FlagInfluencer(ctx.Request().Context(), utils.ContextUserID(ctx), id, input.Reason)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Influencer flagged successfully"})
}

func (r *SponsorRoutes) FlagCampaign(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input flagInput
	ctx.ReadJSON(&input)

	err := r.accounts.FlagCampaign(ctx.Request().Context(), utils.ContextUserID(ctx), id, input.Reason, true)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Campaign flagged successfully"})
}

// GET /view_negotiations — every round across the sponsor's campaigns.
func (r *SponsorRoutes) ViewNegotiations(ctx iris.Context) {
	rows, err := r.lifecycle.NegotiationsForSponsorUser(ctx.Request().Context(), utils.ContextUserID(ctx))
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"negotiations": rows})
}

type negotiationDecisionInput struct {
	Decision string `json:"decision" validate:"required"`
}

// POST /negotiation/{id}/respond — close one negotiation round. The parent
// ad request is untouched.
func (r *SponsorRoutes) RespondNegotiation(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input negotiationDecisionInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	negotiation, err := r.lifecycle.SetNegotiationStatus(ctx.Request().Context(), id, utils.ContextUserID(ctx), input.Decision)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"message": "Negotiation updated", "negotiation": negotiation.Serialize()})
}
