package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timelines/internal/captions"
	"timelines/internal/config"
	"timelines/internal/logging"
	"timelines/internal/matching"
	"timelines/internal/metrics"
	"timelines/internal/nlp"
	"timelines/internal/pipeline"
	"timelines/internal/store"
	"timelines/internal/timex"
	"timelines/internal/topics"
	"timelines/internal/wikipedia"
)

func defaultAnalyzer(cfg *config.Config, logger *slog.Logger) (nlp.Analyzer, error) {
	return nlp.Shared(nlp.HugotConfig{
		ModelName: cfg.NLP.ModelName,
		ModelDir:  cfg.NLP.ModelDir,
		OnnxFile:  cfg.NLP.OnnxFile,
	}, logger)
}

func defaultTagger(cfg *config.Config, logger *slog.Logger) timex.Tagger {
	return timex.NewHeidelTime(timex.Config{
		JavaBinary:   cfg.HeidelTime.JavaBinary,
		JarPath:      cfg.HeidelTime.JarPath,
		WorkDir:      cfg.HeidelTime.WorkDir,
		DocumentType: cfg.HeidelTime.DocumentType,
		Timeout:      cfg.HeidelTimeTimeout(),
	}, logger)
}

// newWikipediaClient builds the shared page and API client. cache may be nil.
func newWikipediaClient(cfg *config.Config, cache *store.Store, recorder *metrics.Recorder, logger *slog.Logger) *wikipedia.Client {
	opts := []wikipedia.Option{
		wikipedia.WithLogger(logger),
		wikipedia.WithObserver(recorder),
	}
	if cache != nil && cfg.Wikipedia.CacheEnabled {
		opts = append(opts, wikipedia.WithCache(cache))
	}
	return wikipedia.NewClient(wikipedia.Config{
		BaseURL:               cfg.Wikipedia.BaseURL,
		UserAgent:             cfg.Wikipedia.UserAgent,
		Timeout:               cfg.WikipediaTimeout(),
		MaxConcurrentRequests: cfg.Wikipedia.MaxConcurrentRequests,
		RequestsPerSecond:     cfg.Wikipedia.RequestsPerSecond,
		RetryAttempts:         cfg.Wikipedia.RetryAttempts,
		InitialBackoff:        time.Duration(cfg.Wikipedia.RetryInitialBackoffMS) * time.Millisecond,
		MaxBackoff:            time.Duration(cfg.Wikipedia.RetryMaxBackoffMS) * time.Millisecond,
	}, opts...)
}

func newResolver(cfg *config.Config, client *wikipedia.Client, recorder *metrics.Recorder, logger *slog.Logger) *topics.Resolver {
	api := wikipedia.NewAPIClient(client, cfg.Wikipedia.APIURL)
	return topics.NewResolver(api, cfg.Wikipedia.TitleBatchSize, recorder, logger)
}

func newMatcher(cfg *config.Config) *matching.Matcher {
	return matching.NewMatcher(matching.Config{
		ItemThreshold:   cfg.Matching.ItemThreshold,
		WindowThreshold: cfg.Matching.WindowThreshold,
		IgnoredTypes:    cfg.Matching.IgnoredEntityTypes,
	})
}

func newCaptionsClient(cfg *config.Config) (*captions.Client, error) {
	return captions.NewClient(captions.Config{
		BaseURL:        cfg.Captions.BaseURL,
		Language:       cfg.Captions.Language,
		UserAgent:      cfg.Wikipedia.UserAgent,
		Timeout:        cfg.CaptionsTimeout(),
		RetryAttempts:  cfg.Wikipedia.RetryAttempts,
		InitialBackoff: time.Duration(cfg.Wikipedia.RetryInitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Wikipedia.RetryMaxBackoffMS) * time.Millisecond,
	})
}

// buildPipeline wires every collaborator of a matching run.
func (c *commandContext) buildPipeline(cfg *config.Config, cache *store.Store, recorder *metrics.Recorder, logger *slog.Logger) (*pipeline.Pipeline, error) {
	analyzer, err := c.newAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	client := newWikipediaClient(cfg, cache, recorder, logger)
	return pipeline.New(pipeline.Deps{
		Analyzer:   analyzer,
		Tagger:     c.newTagger(cfg, logger),
		Candidates: wikipedia.NewCandidateFetcher(client, analyzer, logger),
		Topics:     newResolver(cfg, client, recorder, logger),
		Matcher:    newMatcher(cfg),
		Observer:   recorder,
		Logger:     logger,
	}, pipeline.OptionsFromConfig(cfg))
}

// serveMetrics exposes reg on addr until the returned stop function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	logger.Info("serving metrics", logging.String("addr", listener.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
