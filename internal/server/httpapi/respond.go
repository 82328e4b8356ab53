// Package httpapi exposes the user, token, and check services over a gin
// JSON API. The wire format mirrors the original deployment and is not a
// public contract.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upmonhq/upmon/internal/common"
)

// respondError maps a service error onto an HTTP status with an error body.
func respondError(c *gin.Context, err error) {
	var pf *common.PartialFailure
	switch {
	// PartialFailure goes first: its cascade causes may wrap sentinels like
	// ErrNotFound, and those must not shadow the orphan report.
	case errors.As(err, &pf):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":        err.Error(),
			"undeletedIds": pf.FailedIDs,
		})
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrDuplicateUser),
		errors.Is(err, common.ErrPasswordMismatch),
		errors.Is(err, common.ErrMaxChecksExceeded),
		errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		// ErrConsistency, ErrStore, and anything unexpected.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
