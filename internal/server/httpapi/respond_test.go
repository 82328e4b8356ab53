package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"

	"github.com/upmonhq/upmon/internal/common"
)

func respondStatus(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", common.ErrValidation, http.StatusBadRequest},
		{"duplicate user", common.ErrDuplicateUser, http.StatusBadRequest},
		{"password mismatch", common.ErrPasswordMismatch, http.StatusBadRequest},
		{"quota", common.ErrMaxChecksExceeded, http.StatusBadRequest},
		{"expired token", common.ErrTokenExpired, http.StatusBadRequest},
		{"forbidden", common.ErrForbidden, http.StatusForbidden},
		{"not found", common.ErrNotFound, http.StatusNotFound},
		{"drift", common.ErrConsistency, http.StatusInternalServerError},
		{"store fault", common.ErrStore, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := respondStatus(t, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

// A cascade failure whose cause is a wrapped NotFound must still report as a
// partial failure with the orphaned ids, not as an ordinary 404.
func TestRespondError_PartialFailureWithWrappedNotFound(t *testing.T) {
	cause := multierr.Append(nil, fmt.Errorf("check check2aaaaaaaaaaaaaa: %w", common.ErrNotFound))
	pf := &common.PartialFailure{FailedIDs: []string{"check2aaaaaaaaaaaaaa"}, Err: cause}

	w := respondStatus(t, pf)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "undeletedIds")
	assert.Contains(t, w.Body.String(), "check2aaaaaaaaaaaaaa")
}
