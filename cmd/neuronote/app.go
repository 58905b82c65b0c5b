package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/neuronote/internal"
	pkgconfig "github.com/starford/neuronote/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// stdout receives command output.
var stdout io.Writer = os.Stdout

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "neuronote",
		Usage:   "Notes with trash, extractive summaries, export, REST, SSE and MCP access",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and file watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			{
				Name:      "add",
				Usage:     "Save a new note",
				ArgsUsage: "TITLE CONTENT",
				Action:    withRuntime(addNote),
			},
			{
				Name:   "list",
				Usage:  "List active notes",
				Action: withRuntime(listNotes),
			},
			{
				Name:      "show",
				Usage:     "Print a note as title and content",
				ArgsUsage: "INDEX",
				Action:    withRuntime(showNote),
			},
			{
				Name:      "edit",
				Usage:     "Replace a note's title and content",
				ArgsUsage: "INDEX TITLE CONTENT",
				Action:    withRuntime(editNote),
			},
			{
				Name:      "trash",
				Usage:     "Move a note to the trash",
				ArgsUsage: "INDEX",
				Action:    withRuntime(trashNote),
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List trashed notes",
						Action: withRuntime(listTrash),
					},
				},
			},
			{
				Name:      "restore",
				Usage:     "Restore a trashed note",
				ArgsUsage: "INDEX",
				Action:    withRuntime(restoreNote),
			},
			{
				Name:      "purge",
				Usage:     "Delete a trashed note forever",
				ArgsUsage: "INDEX",
				Action:    withRuntime(purgeNote),
			},
			{
				Name:      "summarize",
				Usage:     "Summarize a note and print the summary",
				ArgsUsage: "INDEX",
				Action:    withRuntime(summarizeNote),
			},
			{
				Name:      "search",
				Usage:     "Full-text search",
				ArgsUsage: "QUERY",
				Action:    withRuntime(searchNotes),
			},
			{
				Name:      "import",
				Usage:     "Import Markdown files as notes",
				ArgsUsage: "FILE...",
				Action:    withRuntime(importFiles),
			},
			{
				Name:      "export",
				Usage:     "Export active notes",
				ArgsUsage: "txt|pdf [DIR]",
				Action:    withRuntime(exportNotes),
			},
			{
				Name:   "groups",
				Usage:  "List notes grouped by category",
				Action: withRuntime(listGroups),
			},
		},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

type runtimeAction func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error

// withRuntime opens the notebook for a one-shot command. Logs go to stderr
// so stdout stays clean for the command's output.
func withRuntime(fn runtimeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := internal.Open(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, cmd, rt)
	}
}

func argIndex(cmd *cli.Command, n int) (int, error) {
	raw := cmd.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("missing INDEX argument")
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("INDEX must be a non-negative integer, got %q", raw)
	}
	return i, nil
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() < n {
		return fmt.Errorf("usage: %s %s", cmd.Name, cmd.ArgsUsage)
	}
	return nil
}
