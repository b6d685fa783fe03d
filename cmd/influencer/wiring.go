package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"influencer/internal/collab/images"
	"influencer/internal/collab/llm"
	"influencer/internal/collab/media"
	"influencer/internal/collab/voice"
	"influencer/internal/collab/youtube"
	"influencer/internal/config"
	"influencer/internal/deps"
	"influencer/internal/journal"
	"influencer/internal/logging"
	"influencer/internal/notifications"
	"influencer/internal/posting"
	"influencer/internal/production"
	"influencer/internal/retry"
)

// runtime bundles what a command built and must release.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	journal  *journal.Store
	notifier notifications.Service
}

func (r *runtime) Close() {
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			r.logger.Warn("close journal", logging.Error(err))
		}
	}
}

func (c *commandContext) runtime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := c.openJournal()
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:      cfg,
		logger:   logger,
		journal:  store,
		notifier: notifications.NewService(cfg, notifications.Options{Logger: logger}),
	}, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMillis) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelaySeconds) * time.Second,
	}
}

// reviewProducer serves commands that only move markers around.
func (r *runtime) reviewProducer() *production.Producer {
	return production.New(r.cfg, production.Deps{
		Notifier: r.notifier,
		Journal:  r.journal,
	}, r.logger)
}

// producer wires every production collaborator; missing credentials or
// binaries fail here rather than mid-run.
func (r *runtime) producer() (*production.Producer, error) {
	if err := deps.Missing(deps.Check(deps.Toolchain(r.cfg))); err != nil {
		return nil, err
	}
	writer, err := newLLMClient(r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	speaker, err := voice.NewClient(voice.Config{
		APIKey:         r.cfg.Voice.APIKey,
		BaseURL:        r.cfg.Voice.BaseURL,
		Model:          r.cfg.Voice.Model,
		TimeoutSeconds: r.cfg.Voice.TimeoutSeconds,
	}, voice.WithRetry(retryPolicy(r.cfg)), voice.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	return production.New(r.cfg, production.Deps{
		Writer:      writer,
		Transcriber: writer,
		Voice:       speaker,
		Media:       media.New(r.cfg.Media, r.logger),
		Stock:       r.stockImages(),
		Notifier:    r.notifier,
		Journal:     r.journal,
		Rand:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}, r.logger), nil
}

func newLLMClient(cfg *config.Config, logger *slog.Logger) (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		APIKey:             cfg.LLM.APIKey,
		BaseURL:            cfg.LLM.BaseURL,
		Model:              cfg.LLM.Model,
		TranscriptionModel: cfg.LLM.TranscriptionModel,
		TimeoutSeconds:     cfg.LLM.TimeoutSeconds,
	}, llm.WithRetry(retryPolicy(cfg)), llm.WithLogger(logger))
}

// stockImages returns nil when no provider is configured.
func (r *runtime) stockImages() production.StockImages {
	client := &http.Client{Timeout: time.Duration(r.cfg.Images.TimeoutSeconds) * time.Second}
	var providers []images.Provider
	if key := r.cfg.Images.PexelsAPIKey; key != "" {
		providers = append(providers, &images.Pexels{BaseURL: r.cfg.Images.PexelsBaseURL, APIKey: key, HTTP: client})
	}
	if key := r.cfg.Images.UnsplashAccessKey; key != "" {
		providers = append(providers, &images.Unsplash{BaseURL: r.cfg.Images.UnsplashBaseURL, AccessKey: key, HTTP: client})
	}
	if len(providers) == 0 {
		return nil
	}
	return images.NewCollector(client, r.logger, providers...)
}

func (r *runtime) uploader() (*youtube.Uploader, error) {
	return youtube.NewUploader(youtube.Config{
		ClientID:     r.cfg.YouTube.ClientID,
		ClientSecret: r.cfg.YouTube.ClientSecret,
		TokenDir:     r.cfg.YouTube.TokenDir,
		ChunkSizeMB:  r.cfg.YouTube.ChunkSizeMB,
	}, youtube.WithRetry(retryPolicy(r.cfg)), youtube.WithLogger(r.logger))
}

func (r *runtime) poster() (*posting.Poster, error) {
	up, err := r.uploader()
	if err != nil {
		return nil, err
	}
	return posting.New(r.cfg, posting.Deps{
		Uploader: up,
		Notifier: r.notifier,
		Journal:  r.journal,
	}, r.logger)
}

// notifyContext is the context for one-shot notification commands.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
