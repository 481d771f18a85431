package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/readmind/internal/config"
)

// cfg is loaded before every command except version.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "readmind",
	Short: "Adaptive reading comprehension tutor",
	Long: "ReadMind is a terminal reading tutor. It targets the learner's weakest PISA " +
		"reading capability with generated exercises, grades answers and discusses texts Socratically.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		configFile, _ := cmd.Flags().GetString("config")
		c, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg.Log, os.Stderr)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Config file (default ./readmind.yaml or ~/.config/readmind/readmind.yaml)")
	f.String("provider", "", "LLM provider: anthropic, openai, gemini, openrouter or mock")
	f.String("model", "", "Model for the selected provider")
	f.String("db", "", "Path to SQLite database file (overrides READMIND_DB)")
	f.String("catalog", "", "YAML or JSON text catalog (default: built-in samples)")
	f.String("profile", "", "Learner profile, e.g. R1=85,R2=72,R3=65,R4=40")
	f.String("lang", "", "Interface and feedback language: zh or en")
	f.String("notes-backend", "", "Note storage: sqlite, file, redis or memory")
	f.String("notes-dir", "", "Directory for the file note backend")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(textsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging installs the default slog handler writing to w.
func setupLogging(c config.LogConfig, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.ToLower(c.Format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}
