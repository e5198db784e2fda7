package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// ParagraphsOutput is the JSON form of the paragraphs command.
type ParagraphsOutput struct {
	Source     string   `json:"source"`
	Paragraphs []string `json:"paragraphs"`
}

// NewParagraphsCmd creates the paragraphs command.
func NewParagraphsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paragraphs [files...]",
		Short: "Show how text is divided into paragraphs",
		Long: `Split text on line breaks and print the non-empty paragraphs with the
indices that split --paragraphs assigns to chunks.`,
		RunE: runParagraphs,
	}
}

func runParagraphs(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()

	sources, err := readSources(cmd, args)
	if err != nil {
		return err
	}

	outputs := make([]ParagraphsOutput, len(sources))
	for i, src := range sources {
		outputs[i] = ParagraphsOutput{Source: src.Name, Paragraphs: segment.SplitParagraphs(src.Text)}
	}

	if formatter.Format() == output.FormatJSON {
		if len(outputs) == 1 {
			return formatter.JSON(outputs[0])
		}
		return formatter.JSON(outputs)
	}

	for _, out := range outputs {
		if len(outputs) > 1 {
			formatter.Header(out.Source)
		}
		for i, p := range out.Paragraphs {
			formatter.Println("%s %s", formatter.Dim(bracket(i)), p)
		}
	}
	return nil
}
