package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultlens/internal"
	"github.com/starford/vaultlens/internal/models"
	"github.com/starford/vaultlens/internal/queryservice"
	pkgconfig "github.com/starford/vaultlens/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
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

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP stream.
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr))
}

// query runs fn against a freshly synced vault and prints its result as JSON.
func query(fn func(context.Context, *cli.Command, *queryservice.Service) (any, error)) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return internal.Query(ctx, func(ctx context.Context, svc *queryservice.Service) error {
			out, err := fn(ctx, cmd, svc)
			if err != nil {
				return err
			}
			return printJSON(cmd.Root().Writer, out)
		}, internal.WithConfig(cfg), internal.WithLogOutput(io.Discard))
	}
}

func printJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func searchCmd(ctx context.Context, cmd *cli.Command, svc *queryservice.Service) (any, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("search takes exactly one query argument")
	}
	q := models.SearchQuery{
		Query:         cmd.Args().First(),
		IsRegex:       cmd.Bool("regex"),
		CaseSensitive: cmd.Bool("case-sensitive"),
		Folder:        cmd.String("folder"),
		Includes:      cmd.StringSlice("include"),
		Excludes:      cmd.StringSlice("exclude"),
		MaxResults:    int(cmd.Int("max-results")),
		SnippetLength: int(cmd.Int("snippet-length")),
	}
	if cmd.Bool("no-snippets") {
		f := false
		q.ReturnSnippets = &f
	}
	return svc.Search(ctx, q)
}

func backlinksCmd(ctx context.Context, cmd *cli.Command, svc *queryservice.Service) (any, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("backlinks takes exactly one note path")
	}
	return svc.Backlinks(ctx, cmd.Args().First(), cmd.Bool("unlinked"))
}

func validateCmd(ctx context.Context, cmd *cli.Command, svc *queryservice.Service) (any, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("validate takes exactly one note path")
	}
	return svc.ValidateWikilinks(ctx, cmd.Args().First())
}

func waypointsCmd(ctx context.Context, cmd *cli.Command, svc *queryservice.Service) (any, error) {
	return svc.SearchWaypoints(ctx, cmd.String("folder"))
}

func suggestCmd(ctx context.Context, cmd *cli.Command, svc *queryservice.Service) (any, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("suggest takes exactly one query argument")
	}
	return svc.FindSuggestions(ctx, cmd.Args().First(), int(cmd.Int("max")))
}

func main() {
	folderFlag := &cli.StringFlag{Name: "folder", Usage: "Restrict to a vault folder"}

	cmd := &cli.Command{
		Name:    "vaultlens",
		Usage:   "Search, wikilink and backlink queries over a Markdown vault",
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
				Usage:  "Run the REST API and file watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "search",
				Usage:     "Search note names and content",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "regex", Aliases: []string{"r"}, Usage: "Treat the query as a regular expression"},
					&cli.BoolFlag{Name: "case-sensitive", Aliases: []string{"s"}, Usage: "Match case"},
					folderFlag,
					&cli.StringSliceFlag{Name: "include", Usage: "Include glob (repeatable)"},
					&cli.StringSliceFlag{Name: "exclude", Usage: "Exclude glob (repeatable)"},
					&cli.IntFlag{Name: "max-results", Aliases: []string{"n"}, Usage: "Stop after this many matches"},
					&cli.IntFlag{Name: "snippet-length", Usage: "Snippet window in characters"},
					&cli.BoolFlag{Name: "no-snippets", Usage: "Return whole lines instead of snippet windows"},
				},
				Action: query(searchCmd),
			},
			{
				Name:      "backlinks",
				Usage:     "List notes referencing a note",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unlinked", Usage: "Include plain-text mentions"},
				},
				Action: query(backlinksCmd),
			},
			{
				Name:      "validate",
				Usage:     "Classify the wikilinks of a note",
				ArgsUsage: "<path>",
				Action:    query(validateCmd),
			},
			{
				Name:   "waypoints",
				Usage:  "List waypoint blocks",
				Flags:  []cli.Flag{folderFlag},
				Action: query(waypointsCmd),
			},
			{
				Name:      "suggest",
				Usage:     "Suggest notes similar to a link target",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max", Value: 5, Usage: "Max suggestions"},
				},
				Action: query(suggestCmd),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
