package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// InitResult holds the result of the init command for JSON output.
type InitResult struct {
	ConfigDir   string `json:"config_dir"`
	ConfigFile  string `json:"config_file"`
	Initialized bool   `json:"initialized"`
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var force, defaults bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize ttsplit configuration",
		Long: `Initialize ttsplit configuration.

This command creates ~/.ttsplit/config.yaml (or the file named by --config)
and prompts for the default model and the paragraph chunk size. Use
--defaults, or JSON output, to skip the prompts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, force, defaults)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "write the default configuration without prompting")

	return cmd
}

// prompter handles interactive user input.
type prompter struct {
	reader    *bufio.Reader
	formatter *output.Formatter
}

func newPrompter(in io.Reader, formatter *output.Formatter) *prompter {
	return &prompter{
		reader:    bufio.NewReader(in),
		formatter: formatter,
	}
}

// prompt asks a question and returns the answer (or default if empty).
func (p *prompter) prompt(question, defaultValue string) (string, error) {
	fmt.Fprintf(p.formatter, "%s [%s]: ", question, defaultValue)

	answer, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

func runInit(cmd *cobra.Command, force, defaults bool) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	loader, err := config.NewLoader("")
	if err != nil {
		return err
	}
	configFile := globalFlags.ConfigFile
	if configFile == "" {
		configFile = loader.DefaultConfigPath()
	}
	result := InitResult{ConfigDir: loader.ConfigDir(), ConfigFile: configFile}

	if _, err := os.Stat(configFile); err == nil && !force {
		if formatter.Format() == output.FormatJSON {
			return formatter.JSON(result)
		}
		formatter.Warning("Configuration already exists at %s", configFile)
		formatter.Info("Use --force to overwrite existing configuration")
		return nil
	}

	cfg := config.NewDefaultConfig()
	interactive := !defaults && formatter.Format() != output.FormatJSON
	if interactive {
		formatter.Header("ttsplit configuration")
		if err := promptConfig(newPrompter(cmd.InOrStdin(), formatter), cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := loader.Save(cfg, configFile); err != nil {
		return err
	}
	result.Initialized = true

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}
	formatter.Success("Configuration written to %s", configFile)
	formatter.Info("Run 'ttsplit models' to see known model limits")
	return nil
}

// promptConfig asks for the settings most users change.
func promptConfig(p *prompter, cfg *config.Config) error {
	limits, err := provider.NewLimitRegistry(cfg.Limits()...)
	if err != nil {
		return err
	}

	for {
		model, err := p.prompt("Default model", cfg.Segmentation.DefaultModel)
		if err != nil {
			return err
		}
		limit, ok := limits.Lookup(model)
		if ok {
			cfg.Segmentation.DefaultModel = limit.ModelID
			break
		}
		p.formatter.Warning("Unknown model %q; run 'ttsplit models' for the list", model)
	}

	for {
		answer, err := p.prompt("Paragraph chunk size (characters)", strconv.Itoa(cfg.Segmentation.ParagraphMaxChars))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			cfg.Segmentation.ParagraphMaxChars = n
			break
		}
		p.formatter.Warning("Enter a positive whole number")
	}
	return nil
}
