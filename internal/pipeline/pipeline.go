// Package pipeline wires configuration, clients, and stages into one
// newsletter run. The three stages are independent invocations that hand
// off through flat files, so each can be re-run on its own.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/newsdigest/newsdigest/internal/cache"
	"github.com/newsdigest/newsdigest/internal/category"
	"github.com/newsdigest/newsdigest/internal/config"
	"github.com/newsdigest/newsdigest/internal/content"
	"github.com/newsdigest/newsdigest/internal/feed"
	"github.com/newsdigest/newsdigest/internal/gemini"
	"github.com/newsdigest/newsdigest/internal/logger"
	"github.com/newsdigest/newsdigest/internal/mailer"
	"github.com/newsdigest/newsdigest/internal/newsletter"
	"github.com/newsdigest/newsdigest/internal/retry"
	"github.com/newsdigest/newsdigest/internal/store"
)

// Pipeline holds the wired components of one run
type Pipeline struct {
	Config *config.Config

	base    *logrus.Entry
	store   *store.Store
	digests *cache.Memory
	builder *newsletter.Builder
	mailer  *mailer.Mailer
}

// New creates a pipeline with all dependencies wired. Credentials are
// checked by the stage that needs them, not here, so a collect-only
// invocation works without model or mail settings.
func New() (*Pipeline, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	base := log.WithField("run_id", uuid.NewString()[:8])

	// Stage handoff files
	st := store.New(cfg.ArticlesFile)

	// Model client shared by selection and summarization
	retryOpts := retry.DefaultOptions()
	retryOpts.Attempts = cfg.GeminiRetryAttempts
	model := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRPM, retryOpts)

	// Digest cache keeps scheduled runs from re-summarizing stories that
	// are still in the feeds
	var digests *cache.Memory
	var builderCache newsletter.DigestCache
	if cfg.CacheTTLHours > 0 {
		digests = cache.NewMemory(time.Duration(cfg.CacheTTLHours) * time.Hour)
		builderCache = digests
	}

	builder := newsletter.NewBuilder(model, content.NewFetcher(), builderCache, base.WithField("stage", "build"))
	sender := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword,
		cfg.Recipients, base.WithField("stage", "send"))

	return &Pipeline{
		Config:  cfg,
		base:    base,
		store:   st,
		digests: digests,
		builder: builder,
		mailer:  sender,
	}, nil
}

// Collect fetches every configured feed, categorizes the entries, and
// writes the article file. Individual feed failures are logged and
// skipped; Collect fails only when nothing at all was gathered.
func (p *Pipeline) Collect(ctx context.Context) error {
	log := p.base.WithField("stage", "collect")

	sources := feed.DefaultSources
	if p.Config.FeedsFile != "" {
		var err error
		if sources, err = feed.LoadSources(p.Config.FeedsFile); err != nil {
			return fmt.Errorf("loading feed sources: %w", err)
		}
	}

	classifier := category.NewClassifier()
	if p.Config.KeywordsFile != "" {
		var err error
		if classifier, err = category.NewClassifierFromFile(p.Config.KeywordsFile); err != nil {
			return fmt.Errorf("loading category keywords: %w", err)
		}
	}

	log.Infof("📡 Fetching %d feeds", len(sources))

	client := feed.NewClient(time.Duration(p.Config.HTTPTimeoutSeconds)*time.Second,
		p.Config.MaxConcurrentFetches, classifier)
	articles, failures := client.FetchAll(ctx, sources)

	for name, err := range failures {
		log.WithError(err).Warnf("Feed %s failed", name)
	}
	if len(articles) == 0 {
		return fmt.Errorf("no articles collected from %d feeds", len(sources))
	}

	if err := p.store.Write(articles); err != nil {
		return fmt.Errorf("writing %s: %w", p.Config.ArticlesFile, err)
	}

	log.Infof("📰 Collected %d articles from %d feeds (%d failed)",
		len(articles), len(sources), len(failures))
	return nil
}

// Build reads the article file, runs selection and summarization, and
// writes both newsletter documents.
func (p *Pipeline) Build(ctx context.Context) error {
	log := p.base.WithField("stage", "build")

	if err := p.Config.ValidateBuild(); err != nil {
		return err
	}

	articles, err := p.store.Read()
	if err != nil {
		return err
	}
	log.Infof("🤖 Building newsletter from %d articles", len(articles))

	htmlDoc, textDoc, err := p.builder.Build(ctx, articles)
	if err != nil {
		return fmt.Errorf("building newsletter: %w", err)
	}

	if err := store.WriteFileAtomic(p.Config.NewsletterHTMLFile, []byte(htmlDoc)); err != nil {
		return fmt.Errorf("writing %s: %w", p.Config.NewsletterHTMLFile, err)
	}
	if err := store.WriteFileAtomic(p.Config.NewsletterTextFile, []byte(textDoc)); err != nil {
		return fmt.Errorf("writing %s: %w", p.Config.NewsletterTextFile, err)
	}

	if p.digests != nil {
		stats := p.digests.Stats()
		log.Debugf("Digest cache: %d entries, %d hits, %d misses",
			stats.Entries, stats.Hits, stats.Misses)
	}

	log.Infof("✅ Newsletter written to %s and %s",
		p.Config.NewsletterHTMLFile, p.Config.NewsletterTextFile)
	return nil
}

// Send delivers the rendered documents to the configured recipients.
func (p *Pipeline) Send() error {
	if err := p.Config.ValidateSend(); err != nil {
		return err
	}
	return p.mailer.Send(p.Config.NewsletterHTMLFile, p.Config.NewsletterTextFile)
}

// Run executes collect, build, and send in order, stopping at the first
// failure. All credentials are validated before any work starts.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Config.ValidateBuild(); err != nil {
		return err
	}
	if err := p.Config.ValidateSend(); err != nil {
		return err
	}

	start := time.Now()

	if err := p.Collect(ctx); err != nil {
		return fmt.Errorf("collect stage: %w", err)
	}
	if err := p.Build(ctx); err != nil {
		return fmt.Errorf("build stage: %w", err)
	}
	if err := p.Send(); err != nil {
		return fmt.Errorf("send stage: %w", err)
	}

	p.base.Infof("🎉 Pipeline completed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
