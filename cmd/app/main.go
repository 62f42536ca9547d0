package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/handoff/internal"
	pkgconfig "github.com/starford/handoff/pkg/config"
)

var version = "dev"

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("mode") {
		cfg.App.Mode = cmd.String("mode")
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("handoff-root") {
		cfg.Handoff.Root = cmd.String("handoff-root")
	}
	if cmd.IsSet("journal") {
		cfg.Journal.Path = cmd.String("journal")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "handoff",
		Usage:   "Markdown handoff documents for agent sessions, served over JSON-RPC",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Transport: stdio (line-delimited JSON-RPC), http, or mcp (Model Context Protocol framing; use stdio for the line protocol)",
				Value:   internal.ModeStdio,
				Sources: cli.EnvVars("HANDOFF_MODE"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port (http mode)",
				Value:   3001,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "handoff-root",
				Aliases: []string{"r"},
				Usage:   "Root directory for handoff documents",
				Value:   "./handoff-system",
				Sources: cli.EnvVars("HANDOFF_ROOT"),
			},
			&cli.StringFlag{
				Name:    "journal",
				Usage:   "SQLite lifecycle journal path (empty disables)",
				Sources: cli.EnvVars("HANDOFF_JOURNAL"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
