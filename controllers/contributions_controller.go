package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/fundverse/escrow-service/config"
	models "github.com/fundverse/escrow-service/models"
	utils "github.com/fundverse/escrow-service/utils"
)

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

// ---------------- CREATE ----------------
func CreateContribution(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CampaignID  uint64 `json:"campaign_id" binding:"required"`
			Amount      uint64 `json:"amount" binding:"required"`
			Method      string `json:"method" binding:"required"`
			MethodLabel string `json:"method_label"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		id, err := cfg.Escrow.Contribute(ctx, c.GetString("user_id"),
			input.CampaignID, input.Amount, input.Method, input.MethodLabel)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      id,
			"message": "contribution created",
		})
	}
}

// ---------------- CREATE (native coin) ----------------
func CreateCoinContribution(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CampaignID uint64 `json:"campaign_id" binding:"required"`
			Amount     uint64 `json:"amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		id, err := cfg.Escrow.ContributeCoin(ctx, c.GetString("user_id"), input.CampaignID, input.Amount)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      id,
			"message": "contribution created",
		})
	}
}

// ---------------- CONFIRM ----------------
func ConfirmContribution(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := cfg.Escrow.Confirm(ctx, c.GetString("user_id"), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "message": "contribution held"})
	}
}

// ---------------- RECEIPT UPLOAD ----------------
func UploadReceipt(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("receipt")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receipt file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
			return
		}
		defer file.Close()

		url, err := utils.UploadReceiptToCloudinary(file, fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "receipt upload failed",
				"details": err.Error(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cfg.Escrow.AttachReceipt(ctx, c.GetString("user_id"), id, url); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "receipt_url": url})
	}
}

// ---------------- LIST (caller's own) ----------------
func ListMyContributions(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		contributions, err := cfg.Escrow.ContributionsByBacker(ctx, c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch contributions"})
			return
		}
		writeContributionList(c, contributions)
	}
}

// writeContributionList sets ETag/Last-Modified from the most recently
// updated entry and honors If-None-Match.
func writeContributionList(c *gin.Context, contributions []models.Contribution) {
	if len(contributions) == 0 {
		c.JSON(http.StatusOK, []models.Contribution{})
		return
	}

	latest := contributions[0]
	for _, ctn := range contributions {
		if ctn.UpdatedAt.After(latest.UpdatedAt) {
			latest = ctn
		}
	}

	etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

	c.JSON(http.StatusOK, contributions)
}
