package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/immuse/tourwizard/internal/auth"
	"github.com/immuse/tourwizard/internal/client"
	"github.com/immuse/tourwizard/internal/ingest"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/museum"
	"github.com/immuse/tourwizard/internal/tour"
)

func apiClient(cCtx *cli.Context) *client.Client {
	return client.New(cCtx.String("api"), cCtx.String("token"))
}

func printJSON(cCtx *cli.Context, v any) error {
	enc := json.NewEncoder(cCtx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optional(cCtx *cli.Context, name string) *string {
	if !cCtx.IsSet(name) {
		return nil
	}
	v := cCtx.String(name)
	return &v
}

func museumCreateCommand(cCtx *cli.Context) error {
	m, err := apiClient(cCtx).CreateMuseum(cCtx.Context, museum.CreateInput{
		Name:        cCtx.String("name"),
		Website:     optional(cCtx, "website"),
		Description: optional(cCtx, "description"),
	})
	if err != nil {
		return err
	}
	return printJSON(cCtx, m)
}

func archiveUploadCommand(cCtx *cli.Context) error {
	if cCtx.NArg() == 0 {
		return errors.New("at least one FILE is required")
	}
	c := apiClient(cCtx)
	museumID := cCtx.String("museum")

	for _, p := range cCtx.Args().Slice() {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		receipt, err := c.UploadArchive(cCtx.Context, museumID, filepath.Base(p), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", p, err)
		}
		if err := printJSON(cCtx, receipt); err != nil {
			return err
		}
	}
	return nil
}

func archiveAddURLCommand(cCtx *cli.Context) error {
	if cCtx.NArg() == 0 {
		return errors.New("at least one URL is required")
	}
	c := apiClient(cCtx)
	for _, u := range cCtx.Args().Slice() {
		receipt, err := c.AddArchiveURL(cCtx.Context, cCtx.String("museum"), u)
		if err != nil {
			return fmt.Errorf("add %s: %w", u, err)
		}
		if err := printJSON(cCtx, receipt); err != nil {
			return err
		}
	}
	return nil
}

func ingestCommand(cCtx *cli.Context) error {
	c := apiClient(cCtx)
	museumID := cCtx.String("museum")

	if cCtx.Bool("async") {
		if err := c.IngestAsync(cCtx.Context, museumID); err != nil {
			return err
		}
		slog.Info("ingestion queued", "museum_id", museumID)
		return nil
	}

	report, err := c.Ingest(cCtx.Context, museumID)
	if err != nil {
		return err
	}
	return printJSON(cCtx, report)
}

func statusCommand(cCtx *cli.Context) error {
	c := apiClient(cCtx)
	museumID := cCtx.String("museum")

	if !cCtx.Bool("wait") {
		report, err := c.Status(cCtx.Context, museumID)
		if err != nil {
			return err
		}
		return printJSON(cCtx, report)
	}

	report, err := ingest.WaitForTerminal(cCtx.Context, func(ctx context.Context) (*ingest.StatusReport, error) {
		return c.Status(ctx, museumID)
	}, ingest.PollOptions{
		Interval:    cCtx.Duration("interval"),
		MaxAttempts: cCtx.Int("max-attempts"),
		OnAttempt: func(attempt int, r *ingest.StatusReport) {
			slog.Info("ingestion status", "attempt", attempt, "overall", r.OverallStatus, "files", len(r.Files))
		},
	})
	if report != nil {
		if perr := printJSON(cCtx, report); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if report.OverallStatus == models.ArchiveStatusFailed {
		return cli.Exit("ingestion finished with failed files", 2)
	}
	return nil
}

func tourCreateCommand(cCtx *cli.Context) error {
	res, err := apiClient(cCtx).CreateTour(cCtx.Context, tour.CreateInput{
		MuseumID:  cCtx.String("museum"),
		Interests: cCtx.StringSlice("interest"),
		Level:     cCtx.String("level"),
		Minutes:   float64(cCtx.Int("minutes")),
	})
	if err != nil {
		return err
	}
	if res.Warning != "" {
		slog.Warn(res.Warning, "tour_id", res.ID)
	}
	return printJSON(cCtx, res)
}

func tourGetCommand(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return errors.New("exactly one TOUR_ID is required")
	}
	detail, err := apiClient(cCtx).GetTour(cCtx.Context, cCtx.Args().First())
	if err != nil {
		return err
	}
	return printJSON(cCtx, detail)
}

func tokenIssueCommand(cCtx *cli.Context) error {
	role := cCtx.String("role")
	if role != auth.RoleOperator && role != auth.RoleAdmin {
		slog.Warn("role cannot reach operator routes", "role", role)
	}
	token, err := auth.IssueToken(cCtx.String("secret"), cCtx.String("subject"), role, cCtx.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cCtx.App.Writer, token)
	return err
}
