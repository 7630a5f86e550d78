package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/auth"
	"github.com/mattjoyce/fabctl/internal/config"
	"github.com/mattjoyce/fabctl/internal/events"
	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/log"
	"github.com/mattjoyce/fabctl/internal/settings"
	"github.com/mattjoyce/fabctl/internal/sync"
	"github.com/mattjoyce/fabctl/internal/tree"
	"github.com/mattjoyce/fabctl/internal/workflow"
)

// app is the assembled client stack shared by every action: one config, one
// authenticated API client, and the stores hanging off it.
type app struct {
	cfg        *config.Config
	env        config.EnvironmentConfig
	client     *fabric.Client
	poller     *fabric.Poller
	registry   *workflow.Registry
	dispatcher *workflow.Dispatcher
	store      *settings.Store
	syncer     *sync.Manager
	hub        *events.Hub
	guard      *workflow.ActionGuard
}

// newApp loads configuration and wires the full stack. configPath may be
// empty; discovery then follows the standard locations.
func newApp(ctx context.Context, configPath string) (*app, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)

	tokens, err := auth.FromConfig(cfg.Fabric.Token)
	if err != nil {
		return nil, err
	}

	env := cfg.DefaultEnvironment()
	client := fabric.New(cfg.EnvironmentBaseURL(env), tokens,
		fabric.WithTimeout(cfg.Fabric.Timeout))
	poller := fabric.NewPoller(client)

	registry := workflow.NewRegistry()
	dispatcher := workflow.NewDispatcher(client, poller, registry, stdoutViewer{})

	store, err := settings.Open(ctx, cfg.Settings.Path)
	if err != nil {
		return nil, err
	}

	syncer, err := sync.NewManager(cfg.Sync.Root)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		env:        env,
		client:     client,
		poller:     poller,
		registry:   registry,
		dispatcher: dispatcher,
		store:      store,
		syncer:     syncer,
		hub:        events.NewHub(100),
		guard:      &workflow.ActionGuard{},
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// treeSession builds a tree session over the app's client and settings.
func (a *app) treeSession() *tree.Session {
	names := make([]string, 0, len(a.cfg.Environments))
	for _, env := range a.cfg.Environments {
		names = append(names, env.Name)
	}
	return tree.NewSession(a.client, a.store, names,
		tree.WithDefinitionSource(a.dispatcher),
		tree.WithHub(a.hub))
}

// stdoutViewer is the CLI's default item rendering: raw payload to stdout.
type stdoutViewer struct{}

func (stdoutViewer) View(name string, payload []byte) error {
	fmt.Printf("--- %s ---\n%s\n", name, payload)
	return nil
}

// report prints err the way the user should see it and returns an exit code.
// Aborts are silent success; API errors carry their documentation link.
func report(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, workflow.ErrAborted) {
		return 0
	}
	if errors.Is(err, workflow.ErrActionInFlight) {
		fmt.Fprintf(os.Stderr, "Busy: %v\n", err)
		return 1
	}

	var apiErr *fabric.APIError
	if errors.As(err, &apiErr) {
		prefix := "Error"
		if apiErr.Level == fabric.NotifyWarning {
			prefix = "Warning"
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, apiErr.UserMessage)
		if apiErr.RequestID != "" {
			fmt.Fprintf(os.Stderr, "  request id: %s\n", apiErr.RequestID)
		}
		if url := apiErr.LearnMoreURL(); url != "" {
			fmt.Fprintf(os.Stderr, "  learn more: %s\n", url)
		}
		return 1
	}

	var opErr *fabric.OperationError
	if errors.As(err, &opErr) {
		fmt.Fprintf(os.Stderr, "Operation failed: %s (%s)\n", opErr.Message, opErr.ErrorCode)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
