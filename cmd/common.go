/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valpere/lingodoc/internal/artifact"
	"github.com/valpere/lingodoc/internal/config"
	"github.com/valpere/lingodoc/internal/detector"
	"github.com/valpere/lingodoc/internal/embed"
	"github.com/valpere/lingodoc/internal/extract"
	"github.com/valpere/lingodoc/internal/job"
	"github.com/valpere/lingodoc/internal/memory"
	"github.com/valpere/lingodoc/internal/pipeline"
	"github.com/valpere/lingodoc/internal/provider"
	"github.com/valpere/lingodoc/internal/validator"
	"github.com/valpere/lingodoc/internal/vecstore"
)

// app bundles the wired components every subcommand works with.
type app struct {
	cfg       config.Settings
	logger    *slog.Logger
	jobs      *job.SQLRegistry
	memory    *memory.Store
	contexts  *vecstore.Store
	artifacts *artifact.Store
	pipeline  *pipeline.Pipeline
}

// newApp loads settings and opens every store. Callers must Close.
func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	jobs, err := job.NewSQLRegistry(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open job registry: %w", err)
	}

	embedder := embed.NewOllamaEmbedder(cfg.EmbedderURL, cfg.EmbedderModel, cfg.LLMTimeout)

	mem, err := memory.New(cfg.DBPath, embedder, logger)
	if err != nil {
		jobs.Close()
		return nil, fmt.Errorf("failed to open translation memory: %w", err)
	}

	contexts, err := vecstore.New(cfg.DBPath, embedder, logger)
	if err != nil {
		mem.Close()
		jobs.Close()
		return nil, fmt.Errorf("failed to open context store: %w", err)
	}

	artifacts, err := artifact.NewStore(cfg.TranslationsDir, cfg.MetadataDir, logger)
	if err != nil {
		contexts.Close()
		mem.Close()
		jobs.Close()
		return nil, err
	}

	p := pipeline.New(cfg, pipeline.Deps{
		Jobs:      jobs,
		Memory:    mem,
		Contexts:  contexts,
		Resolver:  provider.NewResolver(cfg),
		Extractor: extract.NewFileExtractor(),
		Artifacts: artifacts,
		Detector:  detector.New(),
		Validator: validator.New(),
		Logger:    logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		jobs:      jobs,
		memory:    mem,
		contexts:  contexts,
		artifacts: artifacts,
		pipeline:  p,
	}, nil
}

func (a *app) Close() {
	a.contexts.Close()
	a.memory.Close()
	a.jobs.Close()
}
