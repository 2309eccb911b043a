package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/umwelt/internal"
	pkgconfig "github.com/starford/umwelt/pkg/config"
)

const version = "0.1.0"

func newApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return internal.New(internal.WithConfig(cfg))
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	return app.Init(ctx, name, cmd.String("note"))
}

func runImprint(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.Imprint(ctx, internal.ImprintParams{
		Phase:    cmd.String("phase"),
		Semantic: cmd.String("semantic"),
		Target:   cmd.String("target"),
		Workers:  int(cmd.Int("workers")),
	})
}

func runTree(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.Tree(ctx, cmd.String("phase"))
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.History(ctx, int(cmd.Int("limit")))
}

func runVerify(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("imprint id is required")
	}
	return app.Verify(ctx, id)
}

func runClean(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("imprint id is required")
	}
	return app.Clean(ctx, id)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.ServeMCP(ctx, version)
}

func phaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "phase",
		Aliases:  []string{"p"},
		Usage:    "Phase to read from the project's phases directory",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "umwelt",
		Usage:   "Turn a phase of project fragments into a tree of source files or documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "umwelt.yaml",
				Value:       "umwelt.yaml",
				Sources:     cli.EnvVars("UMWELT_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create a project with a first phase holding its root",
				ArgsUsage: "<name>",
				Action:    runInit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Usage: "Project description"},
				},
			},
			{
				Name:   "imprint",
				Usage:  "Write every node of a phase into an empty target directory",
				Action: runImprint,
				Flags: []cli.Flag{
					phaseFlag(),
					&cli.StringFlag{Name: "semantic", Aliases: []string{"s"}, Usage: "plain, markdown or html (default from config)"},
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Output directory (default from config)"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Nodes rendered concurrently (default from config)"},
				},
			},
			{
				Name:   "tree",
				Usage:  "Print the nodes of a phase as a tree",
				Action: runTree,
				Flags:  []cli.Flag{phaseFlag()},
			},
			{
				Name:   "history",
				Usage:  "List recorded imprints, newest first",
				Action: runHistory,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of entries", Value: 20},
				},
			},
			{
				Name:      "verify",
				Usage:     "Compare a recorded imprint with the disk",
				ArgsUsage: "<imprint-id>",
				Action:    runVerify,
			},
			{
				Name:      "clean",
				Usage:     "Remove the unchanged files of a recorded imprint",
				ArgsUsage: "<imprint-id>",
				Action:    runClean,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
