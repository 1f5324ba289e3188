package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/ravenholt/lorekeep/internal"
	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/content"
	"github.com/ravenholt/lorekeep/internal/hooks"
	"github.com/ravenholt/lorekeep/internal/mcpserver"
	"github.com/ravenholt/lorekeep/internal/storage"
	pkgconfig "github.com/ravenholt/lorekeep/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	// The default config path may be absent; built-in defaults apply then.
	// An explicitly requested file must exist.
	if !cmd.IsSet("config") {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// runMCP serves the MCP stdio server over the same content engine, with
// logging on stderr so stdout stays clean for the protocol.
func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	if err := os.MkdirAll(cfg.Content.Root, 0o755); err != nil {
		return fmt.Errorf("create content root: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	campaigns, err := campaign.Load(store)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}

	contentCache := cache.New(cfg.Cache.Enabled, cfg.Cache.TTL())
	hookRegistry := hooks.NewRegistry(logger)
	hooks.RegisterBuiltins(hookRegistry, contentCache, logger)
	mgr := content.NewManager(store, contentCache, hookRegistry, campaigns, logger)

	return mcpserver.New(mgr, campaigns).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "lorekeep",
		Usage:  "Campaign wiki backend: schema-driven Markdown content with a REST API",
		Action: runServe,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve campaign content over the Model Context Protocol (stdio)",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
