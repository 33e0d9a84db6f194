package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tourctl",
		Usage: "Operate the museum tour wizard API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "API base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"TOURWIZARD_API"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token for operator routes",
				EnvVars: []string{"TOURWIZARD_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "museum",
				Usage: "Manage museums",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a museum",
						Action: museumCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Museum name", Required: true},
							&cli.StringFlag{Name: "website", Usage: "Museum website URL"},
							&cli.StringFlag{Name: "description", Usage: "Short description"},
						},
					},
				},
			},
			{
				Name:  "archive",
				Usage: "Add archive files to a museum",
				Subcommands: []*cli.Command{
					{
						Name:      "upload",
						Usage:     "Upload local files",
						ArgsUsage: "FILE...",
						Action:    archiveUploadCommand,
						Flags:     []cli.Flag{museumFlag()},
					},
					{
						Name:      "add-url",
						Usage:     "Register remote files fetched at ingestion",
						ArgsUsage: "URL...",
						Action:    archiveAddURLCommand,
						Flags:     []cli.Flag{museumFlag()},
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Index a museum's pending archive files",
				Action: ingestCommand,
				Flags: []cli.Flag{
					museumFlag(),
					&cli.BoolFlag{Name: "async", Usage: "Queue the run on the worker instead of waiting for it"},
				},
			},
			{
				Name:   "status",
				Usage:  "Show a museum's ingestion status",
				Action: statusCommand,
				Flags: []cli.Flag{
					museumFlag(),
					&cli.BoolFlag{Name: "wait", Usage: "Poll until the status is READY or FAILED"},
					&cli.DurationFlag{Name: "interval", Usage: "Delay between polls", Value: 2 * time.Second},
					&cli.IntFlag{Name: "max-attempts", Usage: "Maximum number of polls", Value: 60},
				},
			},
			{
				Name:  "tour",
				Usage: "Generate and fetch tours",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Generate a tour plan",
						Action: tourCreateCommand,
						Flags: []cli.Flag{
							museumFlag(),
							&cli.StringSliceFlag{Name: "interest", Aliases: []string{"i"}, Usage: "Visitor interest (repeatable)", Required: true},
							&cli.StringFlag{Name: "level", Usage: "child, adult or professional", Value: "adult"},
							&cli.IntFlag{Name: "minutes", Usage: "Tour length in minutes", Value: 60},
						},
					},
					{
						Name:      "get",
						Usage:     "Fetch a stored tour",
						ArgsUsage: "TOUR_ID",
						Action:    tourGetCommand,
					},
				},
			},
			{
				Name:  "token",
				Usage: "Issue operator tokens",
				Subcommands: []*cli.Command{
					{
						Name:   "issue",
						Usage:  "Sign a bearer token",
						Action: tokenIssueCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "secret", Usage: "Signing secret", EnvVars: []string{"AUTH_JWT_SECRET"}, Required: true},
							&cli.StringFlag{Name: "subject", Usage: "Token subject", Value: "operator"},
							&cli.StringFlag{Name: "role", Usage: "Token role", Value: "operator"},
							&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime", Value: 24 * time.Hour},
						},
					},
				},
			},
		},
	}
}

func museumFlag() cli.Flag {
	return &cli.StringFlag{Name: "museum", Aliases: []string{"m"}, Usage: "Museum ID", Required: true}
}

func setupLogger(cCtx *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cCtx.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cCtx.String("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
