package cmd

import (
	"fmt"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/api"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/config"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/llm"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/store"
)

type app struct {
	cfg     *config.Config
	chat    *llm.Client
	backend *api.Client
	store   *store.Store
}

func wireApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return &app{
		cfg:     cfg,
		chat:    llm.NewClient(cfg.BaseURL, cfg.APIKey),
		backend: api.NewClient(cfg.BaseURL, cfg.APIKey),
		store:   store.New(cfg.SessionDir),
	}, nil
}
