// Package leads accepts public lead-form submissions, filters spam without
// tipping off bots, and persists the survivors.
package leads

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/ratelimit"
)

// HoneypotField is the hidden input bots fill and humans never see.
const HoneypotField = "website_url"

type Service struct {
	forms       core.LeadFormStore
	submissions core.LeadSubmissionStore
	policy      *ratelimit.FixedWindowPolicy
	minFill     time.Duration
	logger      core.Logger
	metrics     core.MetricsRecorder
	now         func() time.Time
}

type Config struct {
	Forms       core.LeadFormStore
	Submissions core.LeadSubmissionStore
	Policy      *ratelimit.FixedWindowPolicy
	MinFill     time.Duration
	Logger      core.Logger
	Metrics     core.MetricsRecorder
	Now         func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.MinFill <= 0 {
		cfg.MinFill = core.DefaultConfig().Leads.MinFill()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Metrics == nil {
		cfg.Metrics = core.NopMetricsRecorder{}
	}
	return &Service{
		forms:       cfg.Forms,
		submissions: cfg.Submissions,
		policy:      cfg.Policy,
		minFill:     cfg.MinFill,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}
}

// SubmitInput is one public form post. StartedAt is the render timestamp the
// form embeds so the service can measure fill time.
type SubmitInput struct {
	FormID    string
	Fields    map[string]string
	ClientIP  string
	StartedAt time.Time
}

type SubmitResult struct {
	Accepted     bool
	SubmissionID string
}

// Submit validates, throttles, and persists one submission. Honeypot and
// too-fast submissions return the same accepted result as real ones but
// write nothing.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	formID := strings.TrimSpace(in.FormID)
	if formID == "" {
		return SubmitResult{}, goerrors.New("form id is required", goerrors.CategoryBadInput).
			WithTextCode(core.ReportsErrorBadInput)
	}

	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		if errors.Is(err, core.ErrLeadFormNotFound) {
			return SubmitResult{}, goerrors.New("form not found", goerrors.CategoryNotFound).
				WithTextCode(core.ReportsErrorBadInput)
		}
		return SubmitResult{}, err
	}
	if !form.Active {
		return SubmitResult{}, goerrors.New("form is not accepting submissions", goerrors.CategoryBadInput).
			WithTextCode(core.ReportsErrorBadInput)
	}

	if s.policy != nil {
		if err := s.policy.Allow(ctx, ratelimit.Key{FormID: form.ID, ClientIP: in.ClientIP}); err != nil {
			var throttled ratelimit.ThrottledError
			if errors.As(err, &throttled) {
				s.metrics.IncCounter(ctx, "reports.leads.throttled", 1, map[string]string{"form_id": form.ID})
				return SubmitResult{}, throttled.ToReportsError()
			}
			return SubmitResult{}, err
		}
	}

	if reason := s.spamReason(in); reason != "" {
		// Success-shaped response with zero writes so bots learn nothing.
		s.metrics.IncCounter(ctx, "reports.leads.spam_dropped", 1, map[string]string{"form_id": form.ID})
		if s.logger != nil {
			s.logger.Debug("submission dropped", "form_id", form.ID, "reason", reason)
		}
		return SubmitResult{Accepted: true}, nil
	}

	submission, err := s.submissions.Create(ctx, core.CreateLeadSubmissionInput{
		FormID:   form.ID,
		SiteID:   form.SiteID,
		Fields:   filterFields(form, in.Fields),
		ClientIP: strings.TrimSpace(in.ClientIP),
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.metrics.IncCounter(ctx, "reports.leads.accepted", 1, map[string]string{"form_id": form.ID})
	return SubmitResult{Accepted: true, SubmissionID: submission.ID}, nil
}

func (s *Service) spamReason(in SubmitInput) string {
	if strings.TrimSpace(in.Fields[HoneypotField]) != "" {
		return "honeypot"
	}
	if !in.StartedAt.IsZero() && s.now().Sub(in.StartedAt) < s.minFill {
		return "too_fast"
	}
	return ""
}

// filterFields keeps only the fields the form declares, dropping the honeypot
// and anything else injected client side.
func filterFields(form core.LeadForm, fields map[string]string) map[string]string {
	if len(form.Fields) == 0 {
		filtered := make(map[string]string, len(fields))
		for key, value := range fields {
			if key == HoneypotField {
				continue
			}
			filtered[key] = strings.TrimSpace(value)
		}
		return filtered
	}
	filtered := make(map[string]string, len(form.Fields))
	for _, key := range form.Fields {
		if value, ok := fields[key]; ok {
			filtered[key] = strings.TrimSpace(value)
		}
	}
	return filtered
}

func (s *Service) ListSubmissions(ctx context.Context, formID string, limit int) ([]core.LeadSubmission, error) {
	return s.submissions.ListByForm(ctx, strings.TrimSpace(formID), limit)
}
