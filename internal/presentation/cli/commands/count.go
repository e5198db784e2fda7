package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// CountOutput is the JSON form of one counted input.
type CountOutput struct {
	Source   string `json:"source"`
	ModelID  string `json:"model_id,omitempty"`
	Unit     string `json:"unit"`
	Encoding string `json:"encoding,omitempty"`
	Size     int    `json:"size"`
	MaxSize  int    `json:"max_size"`
	Fits     bool   `json:"fits"`
}

// NewCountCmd creates the count command.
func NewCountCmd() *cobra.Command {
	var opts limitFlags

	cmd := &cobra.Command{
		Use:   "count [files...]",
		Short: "Measure text in a model's counting unit",
		Long: `Measure text under the counting unit of a model (or --unit) and report
whether it fits in a single request.`,
		Example: `  ttsplit count --model google-neural2 letter.txt
  ttsplit count --unit tokens --encoding o200k_base --max 2000 prompt.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, args, opts)
		},
	}

	addLimitFlags(cmd, &opts)
	return cmd
}

func runCount(cmd *cobra.Command, args []string, opts limitFlags) error {
	container, err := mustContainer()
	if err != nil {
		return err
	}
	formatter := GetFormatter()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	limit, err := resolveLimit(container, opts)
	if err != nil {
		return err
	}

	sources, err := readSources(cmd, args)
	if err != nil {
		return err
	}

	outputs := make([]CountOutput, len(sources))
	for i, src := range sources {
		size, err := container.Segmenter().Count(ctx, src.Text, limit.Unit, limit.EncodingName)
		if err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}
		outputs[i] = CountOutput{
			Source:   src.Name,
			ModelID:  limit.ModelID,
			Unit:     limit.Unit.String(),
			Encoding: limit.EncodingName,
			Size:     size,
			MaxSize:  limit.MaxSize,
			Fits:     size <= limit.MaxSize,
		}
	}

	if formatter.Format() == output.FormatJSON {
		if len(outputs) == 1 {
			return formatter.JSON(outputs[0])
		}
		return formatter.JSON(outputs)
	}

	table := output.TableData{
		Columns: []output.TableColumn{
			{Header: "SOURCE"},
			{Header: "SIZE", Align: output.AlignRight},
			{Header: "LIMIT", Align: output.AlignRight},
			{Header: "UNIT"},
			{Header: "FITS"},
		},
	}
	for _, out := range outputs {
		fits := "yes"
		if !out.Fits {
			fits = "no"
		}
		table.Rows = append(table.Rows, []string{
			out.Source, strconv.Itoa(out.Size), strconv.Itoa(out.MaxSize), out.Unit, fits,
		})
	}
	return formatter.Table(table)
}
