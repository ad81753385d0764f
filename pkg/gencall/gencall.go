// Package gencall wires configuration into a ready-to-use generation client
// with its provider, metrics, trace exporters and content helpers.
package gencall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dan-solli/gencall/pkg/config"
	"github.com/dan-solli/gencall/pkg/content"
	"github.com/dan-solli/gencall/pkg/generation"
	"github.com/dan-solli/gencall/pkg/llm"
	"github.com/dan-solli/gencall/pkg/metrics"
	"github.com/dan-solli/gencall/pkg/store"
	"github.com/dan-solli/gencall/pkg/trace"
)

// ErrUnknownProvider is returned for a provider name with no implementation
var ErrUnknownProvider = errors.New("unknown provider")

// Gencall is the main entry point
type Gencall struct {
	config   config.Config
	logger   *slog.Logger
	client   *generation.CompletionClient
	content  *content.Generator
	metrics  *metrics.MetricsCollector
	exporter trace.Exporter
	history  *store.SQLiteLog
}

// New builds the provider named in cfg and wires everything around it
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Gencall, error) {
	provider, err := NewProvider(ctx, cfg.Provider)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, provider, logger)
}

// NewProvider creates the llm.Provider selected by cfg.Name
func NewProvider(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "openai":
		return llm.NewOpenAIProvider(cfg.APIKey, llm.WithOpenAIBaseURL(cfg.BaseURL))
	case "gemini":
		return llm.NewGeminiProvider(ctx, cfg.APIKey, cfg.BaseURL, nil)
	case "anthropic":
		return llm.NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, nil)
	case "ollama":
		return llm.NewOllamaProvider(cfg.BaseURL, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
	}
}

// NewWithProvider wires metrics, trace exporters and the clients around provider.
// A nil logger discards logs.
func NewWithProvider(cfg config.Config, provider llm.Provider, logger *slog.Logger) (*Gencall, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Gencall{config: cfg, logger: logger}

	var collector metrics.Collector = metrics.NewNoopCollector()
	if cfg.Metrics.Enabled {
		g.metrics = metrics.NewCollector()
		collector = g.metrics
	}

	exporter, err := g.openExporters()
	if err != nil {
		return nil, err
	}
	g.exporter = exporter

	client, err := generation.NewCompletionClient(provider,
		generation.WithLogger(logger),
		generation.WithMetrics(collector),
		generation.WithExporter(exporter),
		generation.WithBackoff(generation.Backoff{
			Initial:    cfg.Retry.InitialDelay,
			Max:        cfg.Retry.MaxDelay,
			Multiplier: cfg.Retry.Multiplier,
			Jitter:     cfg.Retry.Jitter,
		}),
		generation.WithRequestTimeout(cfg.Provider.RequestTimeout),
	)
	if err != nil {
		exporter.Close()
		return nil, err
	}
	g.client = client

	g.content = content.NewGenerator(client, content.Config{
		Model:       cfg.Provider.Model,
		RetryLimit:  cfg.Generation.RetryLimit,
		Signoff:     cfg.Content.Signoff,
		MaxInFlight: cfg.Batch.MaxInFlight,
	}, logger)

	return g, nil
}

// openExporters opens the JSONL file and the SQLite log when configured
func (g *Gencall) openExporters() (trace.Exporter, error) {
	var file trace.Exporter
	if g.config.Trace.FilePath != "" {
		opts := []trace.FileExporterOption{trace.WithMaxRotatedFiles(g.config.Trace.MaxRotatedFiles)}
		if g.config.Trace.MaxSizeMB > 0 {
			opts = append(opts, trace.WithMaxSize(int64(g.config.Trace.MaxSizeMB)*1024*1024))
		}
		var err error
		file, err = trace.NewFileExporter(g.config.Trace.FilePath, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
	}

	if g.config.Trace.DBPath != "" {
		history, err := store.NewSQLiteLog(g.config.Trace.DBPath)
		if err != nil {
			if file != nil {
				file.Close()
			}
			return nil, fmt.Errorf("failed to open generation log: %w", err)
		}
		g.history = history
	}

	exporters := []trace.Exporter{file}
	if g.history != nil {
		exporters = append(exporters, g.history)
	}
	return trace.NewMultiExporter(exporters...), nil
}

// Client returns the completion client
func (g *Gencall) Client() *generation.CompletionClient {
	return g.client
}

// Content returns the content helpers
func (g *Gencall) Content() *content.Generator {
	return g.content
}

// History returns the SQLite generation log, or nil when trace.db_path is unset
func (g *Gencall) History() *store.SQLiteLog {
	return g.history
}

// Registry returns the Prometheus registry, or nil when metrics are disabled
func (g *Gencall) Registry() *prometheus.Registry {
	if g.metrics == nil {
		return nil
	}
	return g.metrics.Registry()
}

// Request builds a raw text request from the configured defaults
func (g *Gencall) Request(prompt string) generation.GenerationRequest {
	return generation.GenerationRequest{
		Prompt:      prompt,
		Model:       g.config.Provider.Model,
		MaxTokens:   g.config.Generation.MaxTokens,
		Temperature: g.config.Generation.Temperature,
		RetryLimit:  g.config.Generation.RetryLimit,
		Mode:        generation.RawText,
	}
}

// BatchOptions returns the configured batch options with the placeholder policy
func (g *Gencall) BatchOptions() generation.BatchOptions {
	return generation.BatchOptions{
		Policy:      generation.ContinueWithPlaceholder,
		Placeholder: g.config.Batch.Placeholder,
		MaxInFlight: g.config.Batch.MaxInFlight,
	}
}

// Close flushes and closes the trace exporters
func (g *Gencall) Close() error {
	if g.exporter == nil {
		return nil
	}
	return g.exporter.Close()
}
