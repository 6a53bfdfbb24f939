package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/fundverse/escrow-service/config"
)

// ---------------- PROFILE ----------------
func GetMyProfile(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := cfg.Escrow.ProfileOf(ctx, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ---------------- IS REGISTERED ----------------
// Defaults to the caller when no identity query parameter is given.
func IsRegistered(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.Query("identity")
		if identity == "" {
			identity = c.GetString("user_id")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		registered, err := cfg.Escrow.IsRegistered(ctx, identity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check registration"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"identity": identity, "registered": registered})
	}
}
