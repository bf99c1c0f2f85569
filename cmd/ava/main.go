package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ava/internal/articulation"
	"ava/internal/calendar"
	"ava/internal/config"
	"ava/internal/perception"
	"ava/internal/session"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ava",
	Short: "AVA - a voice-style calendar assistant",
	Long: `AVA is a conversational calendar assistant.

It interprets natural language requests ("schedule a meeting tomorrow at
2pm"), applies them to a local calendar, and answers in plain speech. When
the language model is unreachable it degrades to deterministic keyword
interpretation, so the calendar keeps working offline.

Run without arguments to start an interactive conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

// runCmd handles a single utterance and exits
var runCmd = &cobra.Command{
	Use:   "run [utterance]",
	Short: "Handle a single utterance and print the response",
	Long: `Processes one natural language request through the full pipeline
(interpretation, calendar operation, response phrasing) and prints the
spoken response. Bulk deletes that need confirmation are cancelled, since
there is no follow-up turn to confirm them in.

Example:
  ava run "schedule a dentist appointment tomorrow at 2pm"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUtterance,
}

var eventsDays int

// eventsCmd lists upcoming events without the conversational layer
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming calendar events",
	RunE:  listEvents,
}

var importDays int

// importCmd loads events from an ICS feed
var importCmd = &cobra.Command{
	Use:   "import [file.ics]",
	Short: "Import events from an ICS file into the calendar",
	Long: `Parses an ICS file and inserts every event occurrence within the
import window into the local calendar. Recurring events are expanded into
individual occurrences.`,
	Args: cobra.ExactArgs(1),
	RunE: importICS,
}

// configCmd groups config helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file %s already exists", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ava.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	eventsCmd.Flags().IntVar(&eventsDays, "days", 7, "How many days ahead to list")
	importCmd.Flags().IntVar(&importDays, "days", 90, "How many days ahead to import")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired components behind every subcommand.
type app struct {
	cfg        *config.Config
	loc        *time.Location
	store      *calendar.SQLiteStore
	gateway    *calendar.Gateway
	controller *session.Controller
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := calendar.NewSQLiteStore(cfg.Calendar.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar store: %w", err)
	}

	var client perception.LLMClient
	if cfg.LLM.APIKey != "" {
		client = perception.NewGeminiClientWithConfig(perception.GeminiConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		})
	} else {
		logger.Warn("no Gemini API key configured, using keyword interpretation only")
	}

	interpreter := perception.NewInterpreter(client, loc, logger)
	gateway := calendar.NewGateway(store, logger)
	composer := articulation.NewComposer(client, articulation.Persona{
		UserName: cfg.Assistant.UserName,
		Language: cfg.Assistant.Language,
		Tone:     cfg.Assistant.Tone,
	}, logger)
	controller := session.NewController(interpreter, gateway, composer, loc, logger)

	return &app{
		cfg:        cfg,
		loc:        loc,
		store:      store,
		gateway:    gateway,
		controller: controller,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("failed to close calendar store", zap.Error(err))
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	in := session.NewConsoleInput(os.Stdin, os.Stdout)
	out := session.NewConsoleOutput(os.Stdout)

	greeting := fmt.Sprintf("Hello %s, how can I help with your calendar?", a.cfg.Assistant.UserName)
	if err := out.Speak(ctx, greeting); err != nil {
		return err
	}
	return a.controller.Run(ctx, in, out)
}

func runUtterance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	utterance := strings.Join(args, " ")
	logger.Info("handling utterance", zap.String("input", utterance))

	reply := a.controller.HandleUtterance(ctx, utterance, time.Now().In(a.loc))
	fmt.Printf("AVA: %s\n", reply)
	return nil
}

func listEvents(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	now := time.Now().In(a.loc)
	events, err := a.store.List(ctx, now, now.AddDate(0, 0, eventsDays), 0)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	if len(events) == 0 {
		fmt.Printf("No events in the next %d days.\n", eventsDays)
		return nil
	}
	for _, ev := range events {
		fmt.Printf("%s  %s - %s  %s\n",
			ev.ID,
			ev.Start.In(a.loc).Format("2006-01-02 15:04"),
			ev.End.In(a.loc).Format("15:04"),
			ev.Title)
	}
	return nil
}

func importICS(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open ICS file: %w", err)
	}
	defer f.Close()

	now := time.Now().In(a.loc)
	report, err := calendar.ImportICS(ctx, f, a.store, now, now.AddDate(0, 0, importDays), a.loc, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d occurrences (%d events parsed, %d skipped).\n",
		report.Inserted, report.Parsed, report.Skipped)
	return nil
}
