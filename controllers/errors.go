package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	escrow "github.com/fundverse/escrow-service/escrow"
)

// respondError maps escrow sentinel errors onto HTTP statuses so every
// controller reports the taxonomy the same way.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, escrow.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, escrow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, escrow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, escrow.ErrInvalidState),
		errors.Is(err, escrow.ErrTransferNotConfirmed),
		errors.Is(err, escrow.ErrCampaignNotEnded),
		errors.Is(err, escrow.ErrGoalNotReached):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrCampaignEnded):
		status = http.StatusGone
	case errors.Is(err, escrow.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
