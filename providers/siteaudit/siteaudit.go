// Package siteaudit fetches a bounded page excerpt and asks an LLM chat
// endpoint for a structured SEO verdict.
package siteaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-seo-reports/core"
)

const defaultChatEndpoint = "https://api.openai.com/v1/chat/completions"
const defaultModel = "gpt-4o-mini"

const pageFetchTimeout = 15 * time.Second
const chatTimeout = 60 * time.Second

// The excerpt cap keeps prompts bounded regardless of page size.
const maxExcerptBytes = 32 << 10

const KindAudit = "audit"

// APIKeyConfigKey is the integration config key holding the LLM API key.
const APIKeyConfigKey = "api_key"

type Provider struct {
	Transport    core.TransportAdapter
	ChatEndpoint string
	Model        string
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport, ChatEndpoint: defaultChatEndpoint, Model: defaultModel}
}

func (*Provider) ID() string {
	return core.ProviderSiteAudit
}

func (*Provider) AuthKind() string {
	return core.AuthKindAPIKey
}

func (*Provider) Kinds() []string {
	return []string{KindAudit}
}

const auditPrompt = `You are an SEO auditor. Given the page excerpt below, respond with JSON only:
{"score": <0-100>, "summary": "<one paragraph>", "issues": [{"title": "...", "severity": "high|medium|low", "detail": "..."}]}
Page URL: %s
Excerpt:
%s`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	// ResponseFormat pins the completion to a JSON object.
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
	Issues  []struct {
		Title    string `json:"title"`
		Severity string `json:"severity"`
		Detail   string `json:"detail"`
	} `json:"issues"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	apiKey := req.Integration.ResourceSelector(APIKeyConfigKey)
	if apiKey == "" {
		return core.ReportResult{}, core.NotConnectedError(req.Provider)
	}
	if req.TargetDomain == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(req.Provider, "the site has no domain configured")
	}

	pageURL := "https://" + req.TargetDomain + "/"
	if page := strings.TrimSpace(req.Params["url"]); page != "" {
		pageURL = page
	}

	excerpt, err := p.fetchExcerpt(ctx, req.Provider, pageURL)
	if err != nil {
		return core.ReportResult{}, err
	}

	result, err := p.audit(ctx, req.Provider, apiKey, pageURL, excerpt)
	if err != nil {
		return core.ReportResult{}, err
	}
	return result, nil
}

func (p *Provider) fetchExcerpt(ctx context.Context, provider string, pageURL string) (string, error) {
	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:               "GET",
		URL:                  pageURL,
		Headers:              map[string]string{"User-Agent": "seo-reports-audit/1.0"},
		Timeout:              pageFetchTimeout,
		MaxResponseBodyBytes: maxExcerptBytes,
	})
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", core.UpstreamError(provider, res.StatusCode, "page fetch failed")
	}
	return stripMarkup(string(res.Body)), nil
}

func (p *Provider) audit(ctx context.Context, provider, apiKey, pageURL, excerpt string) (core.ReportResult, error) {
	endpoint := p.ChatEndpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultChatEndpoint
	}
	model := p.Model
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(auditPrompt, pageURL, excerpt)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return core.ReportResult{}, fmt.Errorf("siteaudit: encode chat request: %w", err)
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "POST",
		URL:    endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + apiKey,
			"Content-Type":  "application/json",
		},
		Body:    payload,
		Timeout: chatTimeout,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return core.ReportResult{}, core.PermissionDeniedError(provider, "verify the audit API key")
	case res.StatusCode == http.StatusTooManyRequests:
		return core.ReportResult{}, core.RateLimitedError(provider)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return core.ReportResult{}, core.UpstreamError(provider, res.StatusCode, string(res.Body))
	}

	var chat chatResponse
	if err := json.Unmarshal(res.Body, &chat); err != nil || len(chat.Choices) == 0 {
		return core.ReportResult{}, core.UpstreamError(provider, res.StatusCode, "unparseable chat payload")
	}

	var parsed verdict
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(provider, res.StatusCode, "audit verdict is not valid JSON")
	}

	result := core.ReportResult{
		Rows:   make([]core.ReportRow, 0, len(parsed.Issues)),
		Totals: map[string]float64{"score": parsed.Score},
		Metadata: map[string]any{
			"summary": parsed.Summary,
			"url":     pageURL,
		},
	}
	for _, issue := range parsed.Issues {
		result.Rows = append(result.Rows, core.ReportRow{
			DimensionKey: issue.Title,
			Metrics:      map[string]float64{"severity": severityWeight(issue.Severity)},
		})
	}
	return result, nil
}

func severityWeight(severity string) float64 {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

var markupPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]+>`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// stripMarkup reduces an HTML page to visible-ish text for the prompt. It is
// intentionally crude; the auditor tolerates noisy excerpts.
func stripMarkup(page string) string {
	text := markupPattern.ReplaceAllString(page, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var _ core.ReportProvider = (*Provider)(nil)
