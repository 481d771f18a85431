package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/readmind/internal/app"
)

// runApp wires the dependencies and launches the terminal reader. Logs go
// to readmind.log next to the database while the TUI owns the terminal.
func runApp(cmd *cobra.Command) error {
	profile, err := cfg.ParsedProfile()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	d, err := openDeps(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	logFile, err := os.OpenFile(filepath.Join(filepath.Dir(d.dbPath), "readmind.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(cfg.Log, logFile)

	return app.Run(app.Options{
		Catalog:    cat,
		Profile:    profile,
		NewSession: d.newSession,
		Lang:       cfg.Lang,
	})
}
