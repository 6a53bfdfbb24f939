package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/fundverse/escrow-service/config"
	models "github.com/fundverse/escrow-service/models"
)

// ---------------- LIST (caller's own) ----------------
func ListMyTransfers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		transfers, err := cfg.Escrow.TransfersBySender(ctx, c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch transfers"})
			return
		}
		if len(transfers) == 0 {
			c.JSON(http.StatusOK, []models.Transfer{})
			return
		}
		c.JSON(http.StatusOK, transfers)
	}
}
