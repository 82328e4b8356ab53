package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/server/users"
)

type registerUserRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	TOSAgreement bool   `json:"tosAgreement"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrValidation)
		return
	}

	if err := h.users.Register(c.Request.Context(), req.FirstName, req.LastName, req.Phone, req.Password, req.TOSAgreement); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) readUser(c *gin.Context) {
	user, err := h.users.Read(c.Request.Context(), c.Query("phone"), c.GetHeader(tokenHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Phone     string  `json:"phone"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrValidation)
		return
	}

	patch := users.Patch{FirstName: req.FirstName, LastName: req.LastName, Password: req.Password}
	if err := h.users.Update(c.Request.Context(), req.Phone, patch, c.GetHeader(tokenHeader)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Query("phone"), c.GetHeader(tokenHeader)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
