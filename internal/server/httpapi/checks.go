package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/server/checks"
)

type createCheckRequest struct {
	Protocol       string `json:"protocol"`
	URL            string `json:"url"`
	Method         string `json:"method"`
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

func (h *Handler) createCheck(c *gin.Context) {
	var req createCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrValidation)
		return
	}

	fields := checks.Fields{
		Protocol:       req.Protocol,
		URL:            req.URL,
		Method:         req.Method,
		SuccessCodes:   req.SuccessCodes,
		TimeoutSeconds: req.TimeoutSeconds,
	}
	check, err := h.checks.Create(c.Request.Context(), fields, c.GetHeader(tokenHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) readCheck(c *gin.Context) {
	check, err := h.checks.Read(c.Request.Context(), c.Query("id"), c.GetHeader(tokenHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

type updateCheckRequest struct {
	ID             string  `json:"id"`
	Protocol       *string `json:"protocol"`
	URL            *string `json:"url"`
	Method         *string `json:"method"`
	SuccessCodes   []int   `json:"successCodes"`
	TimeoutSeconds *int    `json:"timeoutSeconds"`
}

func (h *Handler) updateCheck(c *gin.Context) {
	var req updateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrValidation)
		return
	}

	patch := checks.Patch{
		Protocol:       req.Protocol,
		URL:            req.URL,
		Method:         req.Method,
		SuccessCodes:   req.SuccessCodes,
		TimeoutSeconds: req.TimeoutSeconds,
	}
	if err := h.checks.Update(c.Request.Context(), req.ID, patch, c.GetHeader(tokenHeader)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) deleteCheck(c *gin.Context) {
	if err := h.checks.Delete(c.Request.Context(), c.Query("id"), c.GetHeader(tokenHeader)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
