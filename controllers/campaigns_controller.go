package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/fundverse/escrow-service/config"
)

// ---------------- CAMPAIGN CONTRIBUTIONS ----------------
func ListCampaignContributions(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := parseID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		contributions, err := cfg.Escrow.ContributionsByCampaign(ctx, campaignID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch contributions"})
			return
		}
		writeContributionList(c, contributions)
	}
}

// ---------------- ESCROW SUMMARY ----------------
func EscrowSummary(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := parseID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		summary, err := cfg.Escrow.Summary(ctx, campaignID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute summary"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ---------------- RELEASE ----------------
func ReleaseCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := parseID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		moved, err := cfg.Escrow.Release(ctx, c.GetString("user_id"), campaignID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"campaign_id": campaignID,
			"released":    moved,
		})
	}
}

// ---------------- REFUND ----------------
func RefundCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := parseID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		moved, err := cfg.Escrow.Refund(ctx, c.GetString("user_id"), campaignID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"campaign_id": campaignID,
			"refunded":    moved,
		})
	}
}
