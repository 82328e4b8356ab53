package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upmonhq/upmon/internal/common"
)

type issueTokenRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) issueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrValidation)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) getToken(c *gin.Context) {
	token, err := h.tokens.Get(c.Request.Context(), c.Query("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

type extendTokenRequest struct {
	ID     string `json:"id"`
	Extend bool   `json:"extend"`
}

func (h *Handler) extendToken(c *gin.Context) {
	var req extendTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Extend {
		respondError(c, common.ErrValidation)
		return
	}

	if err := h.tokens.Extend(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) revokeToken(c *gin.Context) {
	if err := h.tokens.Revoke(c.Request.Context(), c.Query("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
