// Copyright 2026 The Switchboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/switchboard-dev/switchboard/pkg/agent"
	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/classifier"
	"github.com/switchboard-dev/switchboard/pkg/config"
	"github.com/switchboard-dev/switchboard/pkg/llms"
	"github.com/switchboard-dev/switchboard/pkg/observability"
	"github.com/switchboard-dev/switchboard/pkg/orchestrator"
	"github.com/switchboard-dev/switchboard/pkg/server"
)

// ServeCmd starts the routing server.
type ServeCmd struct {
	Port  int  `help:"Port to listen on (overrides config)." default:"0"`
	Watch bool `help:"Watch the config file and log when it changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnvFiles(); err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	log := slog.Default()

	var metrics *observability.Metrics
	if cfg.Server.Metrics == nil || *cfg.Server.Metrics {
		metrics = observability.NewMetrics()
	}

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Name, cfg.Server.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	llmRegistry, orch, err := buildOrchestrator(cfg, metrics, log)
	if err != nil {
		return err
	}
	defer llmRegistry.Close()

	serverOpts := []server.Option{server.WithLogger(log)}
	if metrics != nil {
		serverOpts = append(serverOpts, server.WithMetrics(metrics))
	}
	srv, err := server.New(cfg.Server, orch, serverOpts...)
	if err != nil {
		return err
	}

	if c.Watch {
		watcher, err := config.NewWatcher(cli.Config, log)
		if err != nil {
			return err
		}
		defer watcher.Close()

		updates := watcher.Subscribe()
		go func() {
			for range updates {
				log.Info("config file changed and validates; restart to apply")
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildOrchestrator assembles providers, agents and the classifier from
// configuration.
func buildOrchestrator(cfg *config.Config, metrics *observability.Metrics, log *slog.Logger) (*llms.Registry, *orchestrator.Orchestrator, error) {
	llmRegistry := llms.NewRegistry()
	for name, llmCfg := range cfg.LLMs {
		if _, err := llmRegistry.CreateFromConfig(name, llmCfg); err != nil {
			llmRegistry.Close()
			return nil, nil, err
		}
	}

	agentRegistry := agent.NewRegistry()
	for _, name := range cfg.AgentNames() {
		agentCfg := cfg.Agents[name]
		provider, ok := llmRegistry.Get(agentCfg.LLM)
		if !ok {
			llmRegistry.Close()
			return nil, nil, fmt.Errorf("agent %q references unknown llm %q", name, agentCfg.LLM)
		}

		a, err := agent.NewLLMAgent(agentCfg, provider)
		if err != nil {
			llmRegistry.Close()
			return nil, nil, err
		}
		if err := agentRegistry.Add(a); err != nil {
			llmRegistry.Close()
			return nil, nil, err
		}
		log.Info("agent registered", "agent_id", a.ID(), "llm", agentCfg.LLM)
	}

	classifierProvider, ok := llmRegistry.Get(cfg.Classifier.LLM)
	if !ok {
		llmRegistry.Close()
		return nil, nil, fmt.Errorf("classifier references unknown llm %q", cfg.Classifier.LLM)
	}

	cls, err := classifier.NewLLMClassifier(classifierProvider,
		classifier.WithSystemPrompt(cfg.Classifier.SystemPrompt),
		classifier.WithVariables(cfg.Classifier.Variables),
		classifier.WithLogger(log),
	)
	if err != nil {
		llmRegistry.Close()
		return nil, nil, err
	}

	window := chat.Window{
		MaxMessages: cfg.Orchestrator.MaxHistoryMessages,
		MaxTokens:   cfg.Orchestrator.MaxHistoryTokens,
	}
	if window.MaxTokens > 0 {
		counter, err := chat.NewTokenCounter(classifierProvider.GetModelName())
		if err != nil {
			llmRegistry.Close()
			return nil, nil, err
		}
		window.Counter = counter
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithNoAgentMessage(cfg.Orchestrator.NoAgentMessage),
		orchestrator.WithConfidenceThreshold(cfg.Orchestrator.ConfidenceThreshold),
		orchestrator.WithHistoryWindow(window),
	}
	if fb := cfg.Orchestrator.FallbackAgent; fb != "" {
		opts = append(opts, orchestrator.WithFallbackAgent(agent.DeriveID(cfg.Agents[fb].Name)))
	}
	if metrics != nil {
		opts = append(opts, orchestrator.WithMetrics(metrics))
	}

	orch, err := orchestrator.New(cls, agentRegistry, opts...)
	if err != nil {
		llmRegistry.Close()
		return nil, nil, err
	}

	return llmRegistry, orch, nil
}
