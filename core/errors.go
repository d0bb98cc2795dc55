package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ReportsErrorBadInput            = "REPORTS_BAD_INPUT"
	ReportsErrorUnauthorized        = "REPORTS_UNAUTHORIZED"
	ReportsErrorForbidden           = "REPORTS_FORBIDDEN"
	ReportsErrorNotConnected        = "REPORTS_NOT_CONNECTED"
	ReportsErrorResourceNotSelected = "REPORTS_RESOURCE_NOT_SELECTED"
	ReportsErrorNotConfigured       = "REPORTS_NOT_CONFIGURED"
	ReportsErrorRefreshFailed       = "REPORTS_REFRESH_FAILED"
	ReportsErrorTokenMissing        = "REPORTS_TOKEN_MISSING"
	ReportsErrorPermissionDenied    = "REPORTS_PERMISSION_DENIED"
	ReportsErrorRateLimited         = "REPORTS_RATE_LIMITED"
	ReportsErrorUpstream            = "REPORTS_UPSTREAM_ERROR"
	ReportsErrorProviderNotFound    = "REPORTS_PROVIDER_NOT_FOUND"
	ReportsErrorSiteNotFound        = "REPORTS_SITE_NOT_FOUND"
	ReportsErrorInternal            = "REPORTS_INTERNAL_ERROR"
)

const maxUpstreamDetailLen = 240

// NotConnectedError signals the integration row is absent or holds no token
// payload; the user must connect the provider first.
func NotConnectedError(provider string) *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New(
			"provider "+strings.TrimSpace(provider)+" is not connected for this site",
			goerrors.CategoryBadInput,
		).WithTextCode(ReportsErrorNotConnected),
	)
}

// ResourceNotSelectedError signals the user has not chosen an account,
// property, or location yet. The hint names the settings surface to visit.
func ResourceNotSelectedError(provider string, hint string) *goerrors.Error {
	message := "no resource selected for provider " + strings.TrimSpace(provider)
	if strings.TrimSpace(hint) != "" {
		message += ": " + strings.TrimSpace(hint)
	}
	return ensureReportsErrorEnvelope(
		goerrors.New(message, goerrors.CategoryBadInput).
			WithTextCode(ReportsErrorResourceNotSelected),
	)
}

// NotConfiguredError is operator-level misconfiguration (missing OAuth client
// or API key) and maps to 503 so it is never confused with user action items.
func NotConfiguredError(subject string) *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New(strings.TrimSpace(subject)+" is not configured", goerrors.CategoryExternal).
			WithCode(http.StatusServiceUnavailable).
			WithTextCode(ReportsErrorNotConfigured),
	)
}

func RefreshFailedError(provider string, cause error) *goerrors.Error {
	message := "token refresh failed for provider " + strings.TrimSpace(provider) + "; reconnect the integration"
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(ReportsErrorRefreshFailed)
	if cause != nil {
		err = err.WithMetadata(map[string]any{"cause": truncateDetail(cause.Error())})
	}
	return ensureReportsErrorEnvelope(err)
}

func TokenMissingError(provider string) *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New(
			"stored credential for provider "+strings.TrimSpace(provider)+" has no access token; reconnect the integration",
			goerrors.CategoryBadInput,
		).WithTextCode(ReportsErrorTokenMissing),
	)
}

// PermissionDeniedError carries the remediation hint for upstream 403s,
// typically an API that must be enabled or a consent scope to re-approve.
func PermissionDeniedError(provider string, hint string) *goerrors.Error {
	message := "provider " + strings.TrimSpace(provider) + " denied access"
	if strings.TrimSpace(hint) != "" {
		message += ": " + strings.TrimSpace(hint)
	}
	return ensureReportsErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuthz).
			WithTextCode(ReportsErrorPermissionDenied),
	)
}

func RateLimitedError(provider string) *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New(
			"provider "+strings.TrimSpace(provider)+" rate limited the request; retry later",
			goerrors.CategoryRateLimit,
		).WithTextCode(ReportsErrorRateLimited),
	)
}

// UpstreamError wraps any other non-2xx provider response, quoting truncated
// upstream text for diagnosability.
func UpstreamError(provider string, statusCode int, detail string) *goerrors.Error {
	message := "provider " + strings.TrimSpace(provider) + " request failed"
	detail = truncateDetail(detail)
	if detail != "" {
		message += ": " + detail
	}
	return ensureReportsErrorEnvelope(
		goerrors.New(message, goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(ReportsErrorUpstream).
			WithMetadata(map[string]any{"upstream_status": statusCode}),
	)
}

func UnauthorizedError() *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New("authentication required", goerrors.CategoryAuth).
			WithTextCode(ReportsErrorUnauthorized),
	)
}

func ForbiddenError(reason string) *goerrors.Error {
	message := "access denied"
	if strings.TrimSpace(reason) != "" {
		message += ": " + strings.TrimSpace(reason)
	}
	return ensureReportsErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuthz).
			WithTextCode(ReportsErrorForbidden),
	)
}

func truncateDetail(detail string) string {
	detail = strings.TrimSpace(detail)
	if len(detail) > maxUpstreamDetailLen {
		detail = detail[:maxUpstreamDetailLen] + "..."
	}
	return detail
}

func reportsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureReportsErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "provider") && strings.Contains(msg, "not registered"):
		return newReportsError(err.Error(), goerrors.CategoryNotFound, ReportsErrorProviderNotFound)
	case strings.Contains(msg, "site") && strings.Contains(msg, "not found"):
		return newReportsError(err.Error(), goerrors.CategoryNotFound, ReportsErrorSiteNotFound)
	case strings.Contains(msg, "not connected"):
		return newReportsError(err.Error(), goerrors.CategoryBadInput, ReportsErrorNotConnected)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newReportsError(err.Error(), goerrors.CategoryRateLimit, ReportsErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newReportsError(err.Error(), goerrors.CategoryBadInput, ReportsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureReportsErrorEnvelope(mapped)
}

func newReportsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureReportsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureReportsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = reportsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultReportsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultReportsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ReportsErrorBadInput
	case goerrors.CategoryNotFound:
		return ReportsErrorSiteNotFound
	case goerrors.CategoryAuth:
		return ReportsErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ReportsErrorForbidden
	case goerrors.CategoryRateLimit:
		return ReportsErrorRateLimited
	case goerrors.CategoryExternal:
		return ReportsErrorUpstream
	default:
		return ReportsErrorInternal
	}
}

func reportsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
