// Package google holds the pieces shared by the Google-family report
// providers: consent scopes, bearer headers, and upstream error
// classification.
package google

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-seo-reports/core"
)

// Scopes returns the consent scopes requested for a provider. The analytics
// provider anchors the shared Google consent, so its scope list covers the
// sibling providers connected under the same grant.
func Scopes(provider string) []string {
	switch provider {
	case core.ProviderGoogleAnalytics:
		return []string{
			"https://www.googleapis.com/auth/analytics.readonly",
			"https://www.googleapis.com/auth/webmasters.readonly",
			"https://www.googleapis.com/auth/adwords",
			"https://www.googleapis.com/auth/business.manage",
			"openid", "email",
		}
	case core.ProviderSearchConsole:
		return []string{"https://www.googleapis.com/auth/webmasters.readonly"}
	case core.ProviderGoogleAds:
		return []string{"https://www.googleapis.com/auth/adwords"}
	case core.ProviderBusinessProfile:
		return []string{"https://www.googleapis.com/auth/business.manage"}
	default:
		return nil
	}
}

func BearerHeaders(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + strings.TrimSpace(accessToken),
		"Accept":        "application/json",
	}
}

// APIError is the envelope Google APIs wrap failures in.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Details []struct {
		Type   string `json:"@type"`
		Reason string `json:"reason"`
	} `json:"details"`
}

// ParseAPIError extracts the structured error payload from a response body.
// The second return is false when the body carries no recognizable envelope.
func ParseAPIError(body []byte) (APIError, bool) {
	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return APIError{}, false
	}
	if envelope.Error.Code == 0 && envelope.Error.Message == "" && envelope.Error.Status == "" {
		return APIError{}, false
	}
	return envelope.Error, true
}

// ClassifyResponse maps a non-2xx Google API response into the report error
// taxonomy. The structured error.status field is authoritative; the HTTP
// status code is only consulted when the body carries no envelope.
func ClassifyResponse(provider string, res core.TransportResponse) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	apiErr, hasEnvelope := ParseAPIError(res.Body)
	status := apiErr.Status
	if !hasEnvelope {
		status = statusFromHTTPCode(res.StatusCode)
	}

	switch status {
	case "PERMISSION_DENIED":
		return core.PermissionDeniedError(provider, permissionHint(apiErr.Message))
	case "RESOURCE_EXHAUSTED":
		return core.RateLimitedError(provider)
	case "UNAUTHENTICATED":
		return core.TokenMissingError(provider)
	}
	detail := apiErr.Message
	if detail == "" {
		detail = string(res.Body)
	}
	return core.UpstreamError(provider, res.StatusCode, detail)
}

func statusFromHTTPCode(code int) string {
	switch code {
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	default:
		return ""
	}
}

func permissionHint(message string) string {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "has not been used") || strings.Contains(lowered, "is disabled"):
		return "enable the API for this project in the Google Cloud console"
	case strings.Contains(lowered, "insufficient"):
		return "reconnect the integration and approve all requested permissions"
	default:
		return "verify the connected account has access to this resource"
	}
}
