package gemini

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"ReplyDesk/internal/apierror"
)

// classify maps backend errors onto apierror.ErrQuotaExceeded when they
// describe a rate or quota limit, and wraps everything else with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isQuota(err) {
		return fmt.Errorf("%s: %w: %v", op, apierror.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && (apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}
	return apierror.IsQuota(err)
}
