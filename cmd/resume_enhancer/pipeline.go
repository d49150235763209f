package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-enhancer/internal/config"
	"github.com/jonathan/resume-enhancer/internal/enhance"
	"github.com/jonathan/resume-enhancer/internal/extract"
	"github.com/jonathan/resume-enhancer/internal/gateway"
	"github.com/jonathan/resume-enhancer/internal/llm"
	"github.com/jonathan/resume-enhancer/internal/store"
)

// pipeline bundles the model-backed collaborators shared by the CLI
// commands and the server.
type pipeline struct {
	client    llm.Client
	Extractor *extract.Extractor
	Enhancer  *enhance.Enhancer
	Store     store.Store

	closeStore func()
}

// buildModelConfig applies per-tier model overrides on top of the defaults.
func buildModelConfig(models map[string]string) *llm.Config {
	cfg := llm.DefaultConfig()
	for tier, model := range models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	return cfg
}

// newPipeline wires the model client, gateway, and storage from
// configuration. The caller must Close it.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or the api_key config field)")
	}

	client, err := llm.NewClient(ctx, buildModelConfig(cfg.Models), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	gw := gateway.New(client)

	p := &pipeline{
		client:    client,
		Extractor: extract.New(gw),
		Enhancer:  enhance.New(gw),
	}

	if cfg.DatabaseURL != "" {
		pg, err := store.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		p.Store = pg
		p.closeStore = pg.Close
	} else if cfg.DataDir != "" {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		p.Store = fs
	}

	return p, nil
}

func (p *pipeline) Close() {
	if p.closeStore != nil {
		p.closeStore()
	}
	_ = p.client.Close()
}
