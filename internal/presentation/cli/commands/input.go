package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/application"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
)

// stdinName labels text read from standard input.
const stdinName = "<stdin>"

// source is one named input text.
type source struct {
	Name string
	Text string
}

// readSources reads every file in args, or standard input when args is empty.
// The name "-" also denotes standard input.
func readSources(cmd *cobra.Command, args []string) ([]source, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	sources := make([]source, 0, len(args))
	stdinRead := false
	for _, arg := range args {
		if arg == "-" {
			if stdinRead {
				return nil, fmt.Errorf("standard input named more than once")
			}
			stdinRead = true
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return nil, fmt.Errorf("failed to read standard input: %w", err)
			}
			sources = append(sources, source{Name: stdinName, Text: string(data)})
			continue
		}

		text, err := readFile(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{Name: arg, Text: text})
	}
	return sources, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// limitFlags selects the limit a command applies.
type limitFlags struct {
	Model    string
	Unit     string
	Max      int
	Encoding string
}

func addLimitFlags(cmd *cobra.Command, f *limitFlags) {
	cmd.Flags().StringVarP(&f.Model, "model", "m", "", "model whose limit to apply (default from config)")
	cmd.Flags().StringVarP(&f.Unit, "unit", "u", "", "counting unit: characters, bytes, tokens")
	cmd.Flags().IntVar(&f.Max, "max", 0, "maximum chunk size in the counting unit")
	cmd.Flags().StringVarP(&f.Encoding, "encoding", "e", "", "tokenizer encoding for --unit tokens (e.g. cl100k_base, o200k_base, heuristic)")
}

// adHoc reports whether the flags describe a limit without naming a model.
func (f limitFlags) adHoc() bool {
	return f.Model == "" && f.Unit != "" && f.Max != 0
}

// resolveLimit builds the limit selected by f. A named model (or the configured
// default) supplies the base limit; --unit, --max and --encoding override it.
func resolveLimit(container *application.Container, f limitFlags) (provider.ModelLimit, error) {
	var limit provider.ModelLimit
	if !f.adHoc() {
		id := f.Model
		if id == "" {
			id = container.Config().Segmentation.DefaultModel
		}
		base, err := container.Segmenter().Limit(id)
		if err != nil {
			return provider.ModelLimit{}, err
		}
		limit = base
	}

	if f.Unit != "" {
		unit, err := segment.ParseUnit(f.Unit)
		if err != nil {
			return provider.ModelLimit{}, err
		}
		if unit != limit.Unit {
			limit.EncodingName = ""
		}
		limit.Unit = unit
	}
	if f.Max != 0 {
		limit.MaxSize = f.Max
	}
	if f.Encoding != "" {
		limit.EncodingName = f.Encoding
	}
	if limit.Unit == segment.UnitTokens && limit.EncodingName == "" {
		limit.EncodingName = container.Config().Segmentation.DefaultEncoding
	}
	return limit, nil
}

// describeLimit renders limit for status lines.
func describeLimit(limit provider.ModelLimit) string {
	if limit.ModelID != "" {
		return limit.String()
	}
	s := fmt.Sprintf("%d %s", limit.MaxSize, limit.Unit)
	if limit.EncodingName != "" {
		s += " (" + limit.EncodingName + ")"
	}
	return s
}

// bracket renders an index label such as "[2]".
func bracket(i int) string {
	return fmt.Sprintf("[%d]", i)
}
