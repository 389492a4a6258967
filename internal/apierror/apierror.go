package apierror

import (
	"errors"
	"strings"
)

var (
	// ErrQuotaExceeded means the generative backend rejected the call for
	// rate or quota reasons. It is never retried automatically.
	ErrQuotaExceeded = errors.New("api quota exceeded")

	// ErrPermissionDenied means the operator refused microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
)

// User-facing notices raised when the quota is exhausted.
const (
	QuotaNotice     = "Você excedeu sua cota de API. Para continuar usando o assistente, por favor, configure o faturamento."
	LiveQuotaNotice = "Você excedeu sua cota de API para conversas em tempo real. Por favor, configure o faturamento."
)

var quotaMarkers = []string{"429", "RESOURCE_EXHAUSTED"}

// IsQuota reports whether err is, wraps, or describes a rate/quota condition.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return IsQuotaText(err.Error())
}

// IsQuotaText reports whether a raw error message describes a quota condition.
func IsQuotaText(msg string) bool {
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
