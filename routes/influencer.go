package routes

import (
	"influencia-server/services"
	"influencia-server/utils"

	"github.com/kataras/iris/v12"
)

// InfluencerRoutes serves the influencer side of the negotiation: viewing
// assigned ad requests, responding to them, and raising counter-offers.
type InfluencerRoutes struct {
	accounts  *services.AccountService
	campaigns *services.CampaignService
	lifecycle *services.Lifecycle
}

func NewInfluencerRoutes(accounts *services.AccountService, campaigns *services.CampaignService, lifecycle *services.Lifecycle) *InfluencerRoutes {
	return &InfluencerRoutes{accounts: accounts, campaigns: campaigns, lifecycle: lifecycle}
}

func (r *InfluencerRoutes) Register(ctx iris.Context) {
	var input services.RegisterInfluencerInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	influencer, err := r.accounts.RegisterInfluencer(ctx.Request().Context(), input)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "New Influencer registered successfully", "influencer": influencer.Serialize()})
}

func (r *InfluencerRoutes) Login(ctx iris.Context) {
	loginHandler(r.accounts)(ctx)
}

// GET /dashboard/data — the ad requests addressed to this influencer with
// their campaigns.
func (r *InfluencerRoutes) Dashboard(ctx iris.Context) {
	rows, err := r.lifecycle.ForInfluencerUser(ctx.Request().Context(), utils.ContextUserID(ctx))
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"adrequests": rows})
}

func (r *InfluencerRoutes) respond(ctx iris.Context, decision string) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	adRequest, err := r.lifecycle.RespondAsInfluencer(ctx.Request().Context(), id, utils.ContextUserID(ctx), decision)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{
		"message":    "Ad request " + decision,
		"ad_request": adRequest.Serialize(),
	})
}

func (r *InfluencerRoutes) AcceptAdRequest(ctx iris.Context) {
	r.respond(ctx, "accepted")
}

func (r *InfluencerRoutes) RejectAdRequest(ctx iris.Context) {
	r.respond(ctx, "rejected")
}

type negotiateInput struct {
	ProposedAmount float64 `json:"proposed_payment_amount" validate:"gt=0"`
}

// POST /adrequest/{id}/negotiate — record a counter-offer and move the
// (pending) request into negotiation. The two writes are deliberately
// separate engine calls: the round always lands, the status flip only
// applies from pending.
func (r *InfluencerRoutes) Negotiate(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input negotiateInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reqCtx := ctx.Request().Context()
	negotiation, err := r.lifecycle.ProposeNegotiation(reqCtx, id, utils.ContextUserID(ctx), input.ProposedAmount)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	if err := r.lifecycle.MarkNegotiating(reqCtx, id); err != nil {
		// The round exists either way; a terminal request just keeps its
		// status.
		ctx.JSON(iris.Map{
			"message":     "Negotiation recorded; ad request status unchanged",
			"negotiation": negotiation.Serialize(),
		})
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"message":     "Negotiation submitted",
		"negotiation": negotiation.Serialize(),
	})
}

// POST /negotiation/{id}/respond — the influencer's side of closing a
// round.
func (r *InfluencerRoutes) RespondNegotiation(ctx iris.Context) {
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

// GET /campaigns — public campaigns an influencer can browse.
func (r *InfluencerRoutes) PublicCampaigns(ctx iris.Context) {
	payload, err := r.campaigns.PublicCampaigns(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}
