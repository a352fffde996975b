package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	appI18n "github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/render"
	"github.com/pavelanni/easymark/internal/shell"
	"github.com/pavelanni/easymark/internal/store"
)

//go:generate templ generate -path ../../internal/render

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "easymark",
		Short:        "Grade assignments with shared, reusable comments",
		SilenceUsage: true,
	}

	grade := gradeCmd()
	root.AddCommand(grade, newCmd(), addStudentCmd(), listCmd(), deleteCmd(), sheetCmd(), exportCmd(), importCmd())

	// Make "grade" the default when no subcommand is given.
	root.RunE = grade.RunE

	// Register grade flags on root so bare `easymark --db ...` still works.
	root.Flags().AddFlagSet(grade.Flags())

	return root
}

// commonFlags registers the database, language and logging flags every
// command accepts.
func commonFlags(f *pflag.FlagSet) {
	f.String("db", "easymark.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Language for grade sheets and menus (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	f.String("log-file", "", "Write logs to this file with rotation instead of stderr")
	f.Int("log-max-size", 10, "Maximum log file size in megabytes before rotation")
	f.Int("log-max-backups", 3, "Rotated log files to keep")
	f.Int("log-max-age", 28, "Days to keep rotated log files")
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Start the interactive grading shell",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int64P("assignment", "a", 0, "Open this assignment id directly")
	f.StringP("out-dir", "o", ".", "Directory for exported grade sheets and .emark files")
	f.String("file-dir", ".", "Directory searched for .emark files to import")
	f.Bool("plain", false, "Disable colors")
	f.Bool("clear", false, "Clear the screen after each menu choice")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if path := v.GetString("log-file"); path != "" {
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    v.GetInt("log-max-size"),
			MaxBackups: v.GetInt("log-max-backups"),
			MaxAge:     v.GetInt("log-max-age"),
			Compress:   true,
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(out, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EASYMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("easymark")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/easymark")
	v.AddConfigPath("/etc/easymark")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// setup configures logging, i18n and the database for a command.
func setup(cmd *cobra.Command) (*viper.Viper, context.Context, *store.Store, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return nil, nil, nil, fmt.Errorf("init i18n: %w", err)
	}
	if langs := appI18n.Languages(); !slices.Contains(langs, lang) {
		return nil, nil, nil, fmt.Errorf("unsupported language %q (available: %s)", lang, strings.Join(langs, ", "))
	}
	ctx := appI18n.WithLanguage(cmd.Context(), lang)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return v, ctx, db, nil
}

func runGrade(cmd *cobra.Command, _ []string) error {
	v, ctx, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	styles := render.DefaultStyles()
	if v.GetBool("plain") {
		styles = render.PlainStyles()
	}
	sh := shell.New(cmd.InOrStdin(), cmd.OutOrStdout(), db, shell.Config{
		OutDir:  v.GetString("out-dir"),
		FileDir: v.GetString("file-dir"),
		Styles:  styles,
		Clear:   v.GetBool("clear"),
	})

	slog.Info("starting grading shell", "db", v.GetString("db"), "lang", v.GetString("lang"))
	if id := v.GetInt64("assignment"); id != 0 {
		return sh.Open(ctx, id)
	}
	return sh.Run(ctx)
}
