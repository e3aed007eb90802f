package main

import (
	"context"
	"fmt"
	"influencia-server/routes"
	"influencia-server/services"
	"influencia-server/storage"
	"influencia-server/utils"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	db := storage.InitializeDB()
	redisClient := storage.InitializeRedis()
	cache := storage.NewCache(redisClient, "")

	accounts := services.NewAccountService(db, cache)
	campaigns := services.NewCampaignService(db, cache)
	lifecycle := services.NewLifecycle(db, cache)
	reports := services.NewReportsService(db, cache)
	mailer := services.NewMailerFromEnv()

	jobs := services.NewJobWorker(reports, mailer)
	if err := jobs.Start(context.Background()); err != nil {
		log.Fatalf("job worker failed to start: %v", err)
	}

	sponsor := routes.NewSponsorRoutes(accounts, campaigns, lifecycle)
	influencer := routes.NewInfluencerRoutes(accounts, campaigns, lifecycle)
	admin := routes.NewAdminRoutes(accounts, reports)
	public := routes.NewPublicRoutes(db, cache, campaigns)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	sponsorParty := app.Party("/api/sponsor")
	{
		sponsorParty.Post("/register", sponsor.Register)
		sponsorParty.Post("/login", sponsor.Login)

		authed := sponsorParty.Party("/", accessTokenVerifierMiddleware, utils.SponsorOnlyMiddleware)
		authed.Get("/dashboard/data", sponsor.Dashboard)
		authed.Post("/addcampaign", sponsor.AddCampaign)
		authed.Get("/campaign/{id:uint}", sponsor.GetCampaign)
		authed.Put("/campaign/{id:uint}", sponsor.EditCampaign)
		authed.Delete("/campaign/{id:uint}", sponsor.DeleteCampaign)
		authed.Get("/export_campaigns", sponsor.ExportCampaigns)
		authed.Get("/adrequest_data/{campaign_id:uint}", sponsor.AdRequestData)
		authed.Post("/add_adrequest_data", sponsor.AddAdRequest)
		authed.Put("/edit_adrequest_data/{id:uint}", sponsor.EditAdRequest)
		authed.Delete("/delete_adrequest_data/{id:uint}", sponsor.DeleteAdRequest)
		authed.Post("/approve_adrequest/{id:uint}", sponsor.ApproveAdRequest)
		authed.Post("/reject_adrequest/{id:uint}", sponsor.RejectAdRequest)
		authed.Post("/flag_influencer/{id:uint}", sponsor.FlagInfluencer)
		authed.Post("/flag_campaign/{id:uint}", sponsor.FlagCampaign)
		authed.Get("/view_negotiations", sponsor.ViewNegotiations)
		authed.Post("/negotiation/{id:uint}/respond", sponsor.RespondNegotiation)
	}

	influencerParty := app.Party("/api/influencer")
	{
		influencerParty.Post("/register", influencer.Register)
		influencerParty.Post("/login", influencer.Login)

		authed := influencerParty.Party("/", accessTokenVerifierMiddleware, utils.InfluencerOnlyMiddleware)
		authed.Get("/dashboard/data", influencer.Dashboard)
		authed.Post("/adrequest/{id:uint}/accept", influencer.AcceptAdRequest)
		authed.Post("/adrequest/{id:uint}/reject", influencer.RejectAdRequest)
		authed.Post("/adrequest/{id:uint}/negotiate", influencer.Negotiate)
		authed.Post("/negotiation/{id:uint}/respond", influencer.RespondNegotiation)
		authed.Get("/campaigns", influencer.PublicCampaigns)
	}

	adminParty := app.Party("/api/admin")
	{
		adminParty.Post("/register", admin.Register)
		adminParty.Post("/login", admin.Login)

		authed := adminParty.Party("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
		authed.Get("/dashboard/data", admin.Dashboard)
		authed.Get("/dashboard/graph-data", admin.GraphData)
		authed.Get("/pending_sponsors", admin.PendingSponsors)
		authed.Post("/approve_sponsor/{id:uint}", admin.ApproveSponsor)
		authed.Post("/reject_sponsor/{id:uint}", admin.RejectSponsor)
		authed.Get("/user_flags", admin.UserFlags)
		authed.Get("/campaign_flags", admin.CampaignFlags)
	}

	api := app.Party("/api")
	{
		api.Get("/all-users", public.AllUsers)
		api.Get("/creators", public.Creators)
		api.Get("/creator/{id:uint}", public.CreatorByID)
		api.Get("/campaigns-list", public.CampaignsList)
		api.Get("/campaign-detail/{id:uint}", public.CampaignDetail)
		api.Get("/available-campaigns", public.AvailableCampaigns)
		api.Get("/advert-requests", public.AdvertRequests)
		api.Get("/advert-request/{id:uint}", public.AdvertRequestByID)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
	app.Post("/signout", routes.Signout(cache))

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
