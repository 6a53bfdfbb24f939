package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/fundverse/escrow-service/config"
	controllers "github.com/fundverse/escrow-service/controllers"
	middleware "github.com/fundverse/escrow-service/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))
	r.POST("/auth/refresh", controllers.RefreshToken(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	users := r.Group("/users")
	users.Use(auth)
	{
		users.GET("/me", controllers.GetMyProfile(cfg))
		users.GET("/registered", controllers.IsRegistered(cfg))
	}

	contributions := r.Group("/contributions")
	contributions.Use(auth)
	{
		contributions.POST("", controllers.CreateContribution(cfg))
		contributions.POST("/coin", controllers.CreateCoinContribution(cfg))
		contributions.GET("", controllers.ListMyContributions(cfg))
		contributions.POST("/:id/confirm", controllers.ConfirmContribution(cfg))
		contributions.POST("/:id/receipt", controllers.UploadReceipt(cfg))
	}

	campaigns := r.Group("/campaigns")
	campaigns.Use(auth)
	{
		campaigns.GET("/:id/contributions", controllers.ListCampaignContributions(cfg))
		campaigns.GET("/:id/escrow", controllers.EscrowSummary(cfg))
		campaigns.POST("/:id/release", controllers.ReleaseCampaign(cfg))
		campaigns.POST("/:id/refund", controllers.RefundCampaign(cfg))
	}

	transfers := r.Group("/transfers")
	transfers.Use(auth)
	{
		transfers.GET("", controllers.ListMyTransfers(cfg))
	}
}
