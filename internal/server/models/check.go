package models

import (
	"fmt"
	"strings"

	"github.com/upmonhq/upmon/internal/common"
)

// CheckIDLength is the fixed length of check ids.
const CheckIDLength = 20

// Check describes a monitored endpoint owned by exactly one user.
type Check struct {
	ID             string   `json:"id"`
	Phone          string   `json:"phone"`
	Protocol       string   `json:"protocol"`
	URL            string   `json:"url"`
	Method         string   `json:"method"`
	SuccessCodes   []int    `json:"successCodes"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
}

var validProtocols = map[string]bool{"http": true, "https": true}

var validMethods = map[string]bool{"get": true, "post": true, "put": true, "delete": true}

// ValidProtocol reports whether p is an accepted probe protocol.
func ValidProtocol(p string) bool { return validProtocols[p] }

// ValidMethod reports whether m is an accepted probe method.
func ValidMethod(m string) bool { return validMethods[m] }

// ValidTimeout reports whether t is within the allowed 1–5 second window.
func ValidTimeout(t int) bool { return t >= 1 && t <= 5 }

// Validate checks every probe field and returns a wrapped ErrValidation
// naming the first offending field.
func (c *Check) Validate() error {
	if !ValidProtocol(c.Protocol) {
		return fmt.Errorf("%w: protocol", common.ErrValidation)
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: url", common.ErrValidation)
	}
	if !ValidMethod(c.Method) {
		return fmt.Errorf("%w: method", common.ErrValidation)
	}
	if len(c.SuccessCodes) == 0 {
		return fmt.Errorf("%w: successCodes", common.ErrValidation)
	}
	if !ValidTimeout(c.TimeoutSeconds) {
		return fmt.Errorf("%w: timeoutSeconds", common.ErrValidation)
	}
	return nil
}
