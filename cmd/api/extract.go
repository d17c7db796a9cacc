package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/nutrichef/backend/internal/audit"
	"github.com/pageza/nutrichef/backend/internal/database"
	"github.com/pageza/nutrichef/backend/internal/service"
)

var (
	replayRecent int
	extractDBURL string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run the response extractor over saved model output",
	Long: `Run the response extractor over raw model output and print the recipe, or the
classified failure, as JSON.

Input is read from the named file, or stdin when no file is given. With --recent N
the last N failed generations are replayed from the audit database instead.

Examples:
  nutrichef extract response.txt
  pbpaste | nutrichef extract
  nutrichef extract --recent 20 --database-url sqlite://audit.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&replayRecent, "recent", 0, "Replay the last N failed generations from the audit database")
	extractCmd.Flags().StringVar(&extractDBURL, "database-url", os.Getenv("AUDIT_DATABASE_URL"), "Audit database DSN")
}

// extractOutput is one line of extract output
type extractOutput struct {
	AuditID string      `json:"audit_id,omitempty"`
	OK      bool        `json:"ok"`
	Recipe  interface{} `json:"recipe,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Error   string      `json:"error,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

var errExtractionFailed = errors.New("extraction failed")

func runExtract(cmd *cobra.Command, args []string) error {
	if replayRecent > 0 {
		return replayAudit(cmd.Context(), cmd.OutOrStdout(), extractDBURL, replayRecent)
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read model output: %w", err)
	}

	out := extractOne(service.NewJSONExtractor(), string(raw))
	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !out.OK {
		return errExtractionFailed
	}
	return nil
}

func replayAudit(ctx context.Context, w io.Writer, dsn string, limit int) error {
	if dsn == "" {
		return fmt.Errorf("no audit database configured: set --database-url or AUDIT_DATABASE_URL")
	}

	db, err := database.OpenAudit(dsn, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	entries, err := audit.NewGormSink(db).Recent(ctx, limit, true)
	if err != nil {
		return fmt.Errorf("failed to load audit entries: %w", err)
	}

	x := service.NewJSONExtractor()
	for i := range entries {
		out := extractOne(x, entries[i].RawResponse)
		out.AuditID = entries[i].ID
		if err := writeJSON(w, out); err != nil {
			return err
		}
	}
	return nil
}

func extractOne(x *service.JSONExtractor, raw string) extractOutput {
	recipe, err := x.Extract(raw)
	if err == nil {
		return extractOutput{OK: true, Recipe: recipe}
	}

	out := extractOutput{Kind: string(service.KindOf(err)), Error: err.Error()}
	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		out.Fields = genErr.Fields
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}
