// Package pipeline walks the multi-stage harvest: pagination
// discovery, candidate listing, per-candidate deep extraction, and the
// review side channel. Per-item failures are isolated at each stage
// boundary; one bad page or product never aborts the batch.
package pipeline

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/config"
	"github.com/humlab/amazon-scraper/internal/scrape"
	"github.com/humlab/amazon-scraper/internal/types"
)

// RunSpec parameterizes one search run.
type RunSpec struct {
	BaseURL        string
	Keyword        string
	MaxResults     int    // 0 = unlimited
	MaxSearchPages int    // 0 = unlimited
	OutputDir      string // when set, listing pages are saved as PNG
}

// Stats counts what one run saw and kept.
type Stats struct {
	PagesPlanned      int
	PagesVisited      int
	CandidatesFound   int
	CandidatesDropped int
	Harvested         int
}

// Pipeline drives one browser session through a search run.
type Pipeline struct {
	session browser.Session
	gate    *scrape.Gate
	store   *config.Store
	logger  *slog.Logger
	stats   Stats
}

// New creates a pipeline bound to a session and a selector gate.
func New(session browser.Session, gate *scrape.Gate, store *config.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		session: session,
		gate:    gate,
		store:   store,
		logger:  logger.With("component", "pipeline"),
	}
}

// Stats returns the counters accumulated by the last Run.
func (p *Pipeline) Stats() Stats { return p.stats }

// Run executes the full harvest for one keyword. It never fails out:
// any error is logged and whatever was accumulated so far (possibly
// nothing) is returned. An empty result is a terminal, non-error
// outcome.
func (p *Pipeline) Run(spec RunSpec) []types.Product {
	p.stats = Stats{}
	p.logger.Info("searching", "keyword", spec.Keyword, "base_url", spec.BaseURL)

	pages, err := p.SearchResultPages(spec.BaseURL, spec.Keyword, spec.MaxSearchPages)
	if err != nil {
		p.logger.Error("search failed", "keyword", spec.Keyword, "error", err)
		return nil
	}
	p.stats.PagesPlanned = len(pages)

	candidates := p.CollectCandidates(pages, spec)
	p.stats.CandidatesFound = len(candidates)

	products := p.DeepExtract(spec, candidates)
	p.stats.Harvested = len(products)

	p.logger.Info("run finished",
		"keyword", spec.Keyword,
		"pages", p.stats.PagesVisited,
		"candidates", p.stats.CandidatesFound,
		"dropped", p.stats.CandidatesDropped,
		"harvested", p.stats.Harvested,
	)
	return products
}

// tld extracts the target market code from the base URL.
func tld(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	parts := strings.Split(u.Host, ".")
	return parts[len(parts)-1]
}
