package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/audit"
	"github.com/pageza/nutrichef/backend/internal/database"
)

var databaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the generation audit table",
	Long: `Create or update the generation_audits table in the audit database.

The database is taken from --database-url or AUDIT_DATABASE_URL. Use a postgres
DSN, or sqlite://path for a local file.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("AUDIT_DATABASE_URL"), "Audit database DSN")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		return fmt.Errorf("no audit database configured: set --database-url or AUDIT_DATABASE_URL")
	}

	db, err := database.OpenAudit(databaseURL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := audit.NewGormSink(db).Migrate(); err != nil {
		return fmt.Errorf("failed to migrate audit table: %w", err)
	}

	logger.Info("audit table migrated", zap.String("table", audit.Entry{}.TableName()))
	return nil
}
