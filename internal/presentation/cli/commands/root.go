// Package commands implements the CLI commands for ttsplit.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/application"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.3.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config    *config.Config
	Formatter *output.Formatter
	Flags     *GlobalFlags
	Container *application.Container
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex // Protects appCtx for thread-safe access
)

// NewRootCmd creates the root command for the ttsplit CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ttsplit",
		Short: "ttsplit - split text into provider-safe TTS chunks",
		Long: `ttsplit splits natural-language text into chunks that fit the input
limit of a text-to-speech or language model.

Limits are counted in characters, UTF-8 bytes, or model tokens. Chunks
break at sentence boundaries where possible, then at word boundaries,
and are truncated only as a last resort.

Key features:
  • Built-in limits for OpenAI, ElevenLabs, Google Cloud and Amazon Polly voices
  • Paragraph mapping for synchronized playback
  • Concurrent batch splitting of many files
  • Watch mode and an interactive REPL`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help, version, init, and completion commands
			switch cmd.Name() {
			case "help", "version", "completion", "init":
				return nil
			}
			return initializeApp(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.ttsplit/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewSplitCmd())
	rootCmd.AddCommand(NewParagraphsCmd())
	rootCmd.AddCommand(NewCountCmd())
	rootCmd.AddCommand(NewModelsCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewReplCmd())

	return rootCmd
}

// newFormatter builds a formatter for cmd honoring the global output flag.
func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithStatusWriter(cmd.ErrOrStderr()),
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	), nil
}

// initializeApp initializes the application context.
func initializeApp(cmd *cobra.Command) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	container, err := application.NewContainer(cfg, globalFlags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	appCtxMu.Lock()
	previous := appCtx
	appCtx = &AppContext{
		Config:    cfg,
		Formatter: formatter,
		Flags:     &globalFlags,
		Container: container,
	}
	appCtxMu.Unlock()

	if previous != nil && previous.Container != nil {
		_ = previous.Container.Close()
	}
	return nil
}

// loadConfig loads configuration from the specified file or default location.
// An explicitly named file must exist.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	if configPath != "" {
		return loader.LoadFromFile(configPath)
	}
	return loader.Load("")
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	if ctx := GetAppContext(); ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter(output.WithColor(output.IsColorSupported()))
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
func GetContainer() *application.Container {
	if ctx := GetAppContext(); ctx != nil {
		return ctx.Container
	}
	return nil
}

// mustContainer returns the container or an error when the app is not initialized.
func mustContainer() (*application.Container, error) {
	container := GetContainer()
	if container == nil {
		return nil, fmt.Errorf("application container not initialized")
	}
	return container, nil
}

// Shutdown releases the resources held by the application context.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx != nil && appCtx.Container != nil {
		_ = appCtx.Container.Close()
	}
	appCtx = nil
}

// Execute runs the root command with graceful shutdown support.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCmd().ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	if err != nil && !interrupted {
		GetFormatter().Error("%s", err.Error())
	}
	Shutdown()
	stop()

	switch {
	case interrupted:
		os.Exit(130) // Standard exit code for SIGINT
	case err != nil:
		os.Exit(1)
	}
}
