// Package workflow drives complete harvest runs: one output directory
// per domain and keyword pair, per-level log files for the run, the
// crawl itself, and the export channels the configuration enables.
package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/config"
	"github.com/humlab/amazon-scraper/internal/export"
	"github.com/humlab/amazon-scraper/internal/pipeline"
	"github.com/humlab/amazon-scraper/internal/scrape"
	"github.com/humlab/amazon-scraper/internal/storage"
	"github.com/humlab/amazon-scraper/internal/types"
)

// Runner executes harvest runs against a configuration store.
type Runner struct {
	store  *config.Store
	logger *slog.Logger

	// Force reruns a pair whose output directory already exists,
	// removing the old directory first.
	Force bool
}

func New(store *config.Store, logger *slog.Logger) *Runner {
	return &Runner{
		store:  store,
		logger: logger.With("component", "workflow"),
	}
}

// runOptions is the per-run slice of the options tree.
type runOptions struct {
	maxResults            int
	maxSearchPages        int
	saveImages            bool
	saveDescriptionImages bool
	saveFullPageImages    bool
	exportReviews         []types.Sentiment
	logLevels             []string
	createEmptyFiles      bool
	headless              bool
	userAgent             string

	mongoEnabled    bool
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
}

func (r *Runner) options() (runOptions, error) {
	var (
		opts runOptions
		err  error
	)

	read := func(dst *bool, key string) {
		if err != nil {
			return
		}
		*dst, err = config.Value{Key: key, Default: false, Store: r.store}.Bool()
	}

	if opts.maxResults, err = (config.Value{Key: "options.max_results", Default: 0, Store: r.store}).Int(); err != nil {
		return opts, err
	}
	if opts.maxSearchPages, err = (config.Value{Key: "options.max_search_result_pages", Default: 0, Store: r.store}).Int(); err != nil {
		return opts, err
	}

	read(&opts.saveImages, "options.save_images")
	read(&opts.saveDescriptionImages, "options.save_description_images")
	read(&opts.saveFullPageImages, "options.save_full_page_images")
	read(&opts.createEmptyFiles, "options.create_empty_files")
	read(&opts.mongoEnabled, "options.mongo.enabled")
	if err != nil {
		return opts, err
	}

	if opts.headless, err = (config.Value{Key: "options.headless", Default: true, Store: r.store}).Bool(); err != nil {
		return opts, err
	}
	if opts.userAgent, err = (config.Value{Key: "options.user_agent", Default: "", Store: r.store}).String(); err != nil {
		return opts, err
	}
	if opts.logLevels, err = (config.Value{Key: "options.log_levels", Default: []string{}, Store: r.store}).Strings(); err != nil {
		return opts, err
	}

	sentiments, err := config.Value{Key: "options.export_reviews", Default: []string{}, Store: r.store}.Strings()
	if err != nil {
		return opts, err
	}
	for _, name := range sentiments {
		sentiment := types.Sentiment(name)
		if !sentiment.Valid() {
			return opts, fmt.Errorf("unknown review sentiment %q in options.export_reviews", name)
		}
		opts.exportReviews = append(opts.exportReviews, sentiment)
	}

	if opts.mongoEnabled {
		if opts.mongoURI, err = (config.Value{Key: "options.mongo.uri", Mandatory: true, Store: r.store}).String(); err != nil {
			return opts, err
		}
		if opts.mongoDatabase, err = (config.Value{Key: "options.mongo.database", Default: "amazon_scraper", Store: r.store}).String(); err != nil {
			return opts, err
		}
		if opts.mongoCollection, err = (config.Value{Key: "options.mongo.collection", Default: "products", Store: r.store}).String(); err != nil {
			return opts, err
		}
	}

	return opts, nil
}

// RunAll walks the payload's domain and keyword lists pairwise. A pair
// that fails is logged and the remaining pairs still run.
func (r *Runner) RunAll() error {
	domains, err := config.Value{Key: "payload.domains", Mandatory: true, Store: r.store}.Strings()
	if err != nil {
		return err
	}
	keywords, err := config.Value{Key: "payload.keywords", Mandatory: true, Store: r.store}.Strings()
	if err != nil {
		return err
	}

	for _, domain := range domains {
		for _, keyword := range keywords {
			if err := r.Run(domain, keyword); err != nil {
				r.logger.Error("run failed", "domain", domain, "keyword", keyword, "error", err)
			}
		}
	}
	return nil
}

// Run harvests one domain and keyword pair into its dated output
// directory. An existing directory for the pair skips the run unless
// Force is set.
func (r *Runner) Run(domain, keyword string) error {
	targetRoot, err := config.Value{Key: "payload.target_folder", Mandatory: true, Store: r.store}.String()
	if err != nil {
		return err
	}
	opts, err := r.options()
	if err != nil {
		return err
	}

	base := baseURL(domain)
	dirDomain := strings.ReplaceAll(strings.TrimPrefix(domain, "https://"), "/", "_")

	existing, err := filepath.Glob(filepath.Join(targetRoot, keyword+"_"+dirDomain+"_*"))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if !r.Force {
			r.logger.Info("output exists, skipping", "domain", domain, "keyword", keyword, "dir", existing[0])
			return nil
		}
		for _, dir := range existing {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove previous output: %w", err)
			}
			r.logger.Info("removed previous output", "dir", dir)
		}
	}

	outDir := filepath.Join(targetRoot,
		fmt.Sprintf("%s_%s_%s", keyword, dirDomain, time.Now().Format("20060102")))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	logger, detachLogs, err := attachRunLogs(r.logger, outDir, opts.logLevels)
	if err != nil {
		return err
	}
	defer detachLogs()

	session, err := browser.Launch(browser.Options{
		Headless:  opts.headless,
		Stealth:   true,
		UserAgent: opts.userAgent,
	}, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	gate := scrape.NewGate(r.store, logger)
	pipe := pipeline.New(session, gate, r.store, logger)

	products := pipe.Run(pipeline.RunSpec{
		BaseURL:        base,
		Keyword:        keyword,
		MaxResults:     opts.maxResults,
		MaxSearchPages: opts.maxSearchPages,
		OutputDir:      outDir,
	})

	return r.finishRun(pipe, session, gate, logger, opts, base, keyword, outDir, products)
}

// finishRun writes the results table and runs the side channels. An
// empty harvest ends the run before any file is written.
func (r *Runner) finishRun(pipe *pipeline.Pipeline, session browser.Session, gate *scrape.Gate,
	logger *slog.Logger, opts runOptions, base, keyword, outDir string, products []types.Product) error {

	if len(products) == 0 {
		logger.Warn("no results found", "keyword", keyword)
		return nil
	}

	path, err := export.WriteProducts(outDir, base, keyword, products)
	if err != nil {
		return err
	}
	logger.Info("results written", "path", path, "records", len(products))

	r.exportChannels(pipe, session, gate, logger, opts, base, outDir, products)

	if opts.mongoEnabled {
		r.storeInMongo(logger, opts, products)
	}
	return nil
}

// exportChannels runs the enabled side channels for every surviving
// record. Channel failures are logged per item and never end the run.
func (r *Runner) exportChannels(pipe *pipeline.Pipeline, session browser.Session, gate *scrape.Gate,
	logger *slog.Logger, opts runOptions, base, outDir string, products []types.Product) {

	saver := export.NewImageSaver(logger)
	for _, product := range products {
		if opts.saveImages {
			saver.SaveProductImages(outDir, product)
		}
		if opts.saveDescriptionImages {
			saver.SaveDescriptionImages(outDir, product)
		}
		if opts.saveFullPageImages {
			shot := filepath.Join(outDir, product.SortID, product.SortID+"_full_page.png")
			if err := export.SavePageAsPNG(session, gate, product.URL, shot, logger); err != nil {
				logger.Warn("full page screenshot failed", "asin", product.ASIN, "error", err)
			}
		}
		for _, sentiment := range opts.exportReviews {
			r.exportReviews(pipe, logger, opts, base, outDir, product, sentiment)
		}
	}
}

func (r *Runner) exportReviews(pipe *pipeline.Pipeline, logger *slog.Logger, opts runOptions,
	base, outDir string, product types.Product, sentiment types.Sentiment) {

	reviews, err := pipe.Reviews(base, product.ASIN, sentiment)
	if err != nil {
		logger.Warn("review export failed", "asin", product.ASIN, "sentiment", sentiment, "error", err)
		return
	}
	if len(reviews) == 0 && !opts.createEmptyFiles {
		return
	}

	path := filepath.Join(outDir, product.SortID,
		fmt.Sprintf("%s_%s_reviews.csv", product.SortID, sentiment))
	if err := export.WriteReviews(path, reviews); err != nil {
		logger.Warn("review file failed", "asin", product.ASIN, "error", err)
	}
}

func (r *Runner) storeInMongo(logger *slog.Logger, opts runOptions, products []types.Product) {
	exporter, err := storage.NewMongoExporter(opts.mongoURI, opts.mongoDatabase, opts.mongoCollection, logger)
	if err != nil {
		logger.Warn("mongodb unavailable", "error", err)
		return
	}
	defer exporter.Close()

	if err := exporter.StoreProducts(products); err != nil {
		logger.Warn("mongodb export failed", "error", err)
	}
}

// baseURL expands a bare market code into the storefront URL and
// passes full URLs through.
func baseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://www.amazon." + domain
}
