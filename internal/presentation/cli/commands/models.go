package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	var providerName, unitName string

	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List known model limits",
		Long: `List the input limits of every known model, including entries added or
overridden in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(providerName, unitName)
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "only show models of this provider")
	cmd.Flags().StringVarP(&unitName, "unit", "u", "", "only show models counting this unit")

	return cmd
}

func runModels(providerName, unitName string) error {
	container, err := mustContainer()
	if err != nil {
		return err
	}
	formatter := GetFormatter()

	var unit segment.CountingUnit
	if unitName != "" {
		if unit, err = segment.ParseUnit(unitName); err != nil {
			return err
		}
	}

	var limits []provider.ModelLimit
	for _, l := range container.Limits().All() {
		if providerName != "" && !strings.EqualFold(l.Provider, providerName) {
			continue
		}
		if unit != segment.UnitUnknown && l.Unit != unit {
			continue
		}
		limits = append(limits, l)
	}

	if formatter.Format() == output.FormatJSON {
		if limits == nil {
			limits = []provider.ModelLimit{}
		}
		return formatter.JSON(limits)
	}

	if len(limits) == 0 {
		formatter.Info("No models match")
		return nil
	}

	defaultModel := container.Config().Segmentation.DefaultModel
	table := output.TableData{
		Columns: []output.TableColumn{
			{Header: "MODEL"},
			{Header: "API MODEL"},
			{Header: "PROVIDER"},
			{Header: "MAX", Align: output.AlignRight},
			{Header: "UNIT"},
			{Header: "ENCODING"},
		},
	}
	for _, l := range limits {
		id := l.ModelID
		if l.Matches(defaultModel) {
			id += " *"
		}
		table.Rows = append(table.Rows, []string{
			id, l.APIModelID, l.Provider, strconv.Itoa(l.MaxSize), l.Unit.String(), l.EncodingName,
		})
	}
	return formatter.Table(table)
}
