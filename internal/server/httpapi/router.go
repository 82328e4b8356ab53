package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/checks"
	"github.com/upmonhq/upmon/internal/server/tokens"
	"github.com/upmonhq/upmon/internal/server/users"
)

// tokenHeader carries the session token id on owner-scoped requests.
const tokenHeader = "token"

// Handler bundles the three services behind the router.
type Handler struct {
	users  *users.Service
	tokens *tokens.Service
	checks *checks.Service
}

func NewHandler(us *users.Service, ts *tokens.Service, cs *checks.Service) *Handler {
	return &Handler{users: us, tokens: ts, checks: cs}
}

// NewRouter builds the gin engine with middleware and all routes attached.
func NewRouter(h *Handler, logger logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/users", h.registerUser)
	r.GET("/users", h.readUser)
	r.PUT("/users", h.updateUser)
	r.DELETE("/users", h.deleteUser)

	r.POST("/tokens", h.issueToken)
	r.GET("/tokens", h.getToken)
	r.PUT("/tokens", h.extendToken)
	r.DELETE("/tokens", h.revokeToken)

	r.POST("/checks", h.createCheck)
	r.GET("/checks", h.readCheck)
	r.PUT("/checks", h.updateCheck)
	r.DELETE("/checks", h.deleteCheck)

	return r
}
