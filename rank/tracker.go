// Package rank runs keyword position checks against a SERP provider and
// persists the latest result per keyword.
package rank

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
)

// Tracker walks a site's keywords one at a time, spacing requests so the
// SERP provider does not see a burst.
type Tracker struct {
	sites    core.SiteStore
	keywords core.KeywordStore
	provider core.RankProvider
	delay    time.Duration
	logger   core.Logger
	metrics  core.MetricsRecorder
	now      func() time.Time
}

type Config struct {
	Sites    core.SiteStore
	Keywords core.KeywordStore
	Provider core.RankProvider
	Delay    time.Duration
	Logger   core.Logger
	Metrics  core.MetricsRecorder
	Now      func() time.Time
}

func NewTracker(cfg Config) *Tracker {
	if cfg.Delay <= 0 {
		cfg.Delay = core.DefaultConfig().Rank.Delay()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Metrics == nil {
		cfg.Metrics = core.NopMetricsRecorder{}
	}
	return &Tracker{
		sites:    cfg.Sites,
		keywords: cfg.Keywords,
		provider: cfg.Provider,
		delay:    cfg.Delay,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
}

// Outcome is the result of one keyword check within a run.
type Outcome struct {
	KeywordID string
	Phrase    string
	Position  int
	Err       error
}

// RunReport summarizes one tracking run. Processed counts every keyword the
// run reached, including ones whose fetch failed.
type RunReport struct {
	SiteID    string
	Processed int
	Failed    int
	Outcomes  []Outcome
}

// TrackSite checks every keyword of the site in order. A failed fetch is
// recorded on the keyword and the run moves on; only context cancellation
// stops the loop early.
func (t *Tracker) TrackSite(ctx context.Context, siteID string) (RunReport, error) {
	if t == nil || t.keywords == nil || t.provider == nil {
		return RunReport{}, goerrors.New("rank tracker is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ReportsErrorNotConfigured)
	}
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return RunReport{}, goerrors.New("site id is required", goerrors.CategoryBadInput).
			WithTextCode(core.ReportsErrorBadInput)
	}

	site, err := t.sites.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, core.ErrSiteNotFound) {
			return RunReport{}, goerrors.New("site not found", goerrors.CategoryNotFound).
				WithTextCode(core.ReportsErrorSiteNotFound)
		}
		return RunReport{}, err
	}
	domain := core.NormalizeDomain(site.Domain)

	keywords, err := t.keywords.ListBySite(ctx, siteID)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{SiteID: siteID, Outcomes: make([]Outcome, 0, len(keywords))}
	for i, keyword := range keywords {
		if i > 0 {
			if err := t.wait(ctx); err != nil {
				return report, err
			}
		}
		outcome := t.trackKeyword(ctx, domain, keyword)
		report.Processed++
		if outcome.Err != nil {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	t.metrics.IncCounter(ctx, "reports.rank.runs", 1, map[string]string{"site_id": siteID})
	t.metrics.IncCounter(ctx, "reports.rank.keywords", int64(report.Processed), map[string]string{"site_id": siteID})
	if t.logger != nil {
		t.logger.Info("rank run finished",
			"site_id", siteID,
			"processed", report.Processed,
			"failed", report.Failed,
		)
	}
	return report, nil
}

func (t *Tracker) trackKeyword(ctx context.Context, domain string, keyword core.Keyword) Outcome {
	outcome := Outcome{KeywordID: keyword.ID, Phrase: keyword.Phrase}

	result, err := t.provider.FetchRank(ctx, core.RankQuery{Keyword: keyword.Phrase, Domain: domain})
	ranking := core.KeywordRanking{Domain: domain, FetchedAt: t.now()}
	if err != nil {
		// Persist the failure so the UI shows it instead of a stale position.
		ranking.Error = err.Error()
		outcome.Err = err
		if t.logger != nil {
			t.logger.Warn("rank fetch failed", "keyword_id", keyword.ID, "phrase", keyword.Phrase, "error", err)
		}
	} else {
		ranking.Position = result.Position
		ranking.RankAbsolute = result.RankAbsolute
		ranking.URL = result.URL
		ranking.Title = result.Title
		ranking.Description = result.Description
		outcome.Position = result.Position
	}

	if err := t.keywords.SaveRanking(ctx, keyword.ID, ranking); err != nil {
		if outcome.Err == nil {
			outcome.Err = err
		}
		if t.logger != nil {
			t.logger.Error("rank persistence failed", "keyword_id", keyword.ID, "error", err)
		}
	}
	return outcome
}

func (t *Tracker) wait(ctx context.Context) error {
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
