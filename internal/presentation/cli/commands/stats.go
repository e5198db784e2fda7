package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// StatsOutput is the JSON form of the stats command.
type StatsOutput struct {
	Since          string       `json:"since"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	TotalRuns      int64        `json:"total_runs"`
	TotalChunks    int64        `json:"total_chunks"`
	TotalInput     int64        `json:"total_input"`
	AvgChunks      float64      `json:"avg_chunks"`
	AvgDurationUs  int64        `json:"avg_duration_us"`
	Truncations    int64        `json:"truncations"`
	TruncationRate float64      `json:"truncation_rate"`
	Models         []ModelStats `json:"models"`
	Recent         []RecentRun  `json:"recent,omitempty"`
}

// ModelStats is the per-model breakdown in StatsOutput.
type ModelStats struct {
	ModelID       string `json:"model_id"`
	Runs          int64  `json:"runs"`
	Chunks        int64  `json:"chunks"`
	Truncations   int64  `json:"truncations"`
	AvgDurationUs int64  `json:"avg_duration_us"`
}

// RecentRun is one entry of the recent run list in StatsOutput.
type RecentRun struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"created_at"`
	ModelID    string `json:"model_id,omitempty"`
	Unit       string `json:"unit"`
	MaxSize    int    `json:"max_size"`
	InputSize  int    `json:"input_size"`
	Chunks     int    `json:"chunks"`
	Truncated  bool   `json:"truncated"`
	DurationUs int64  `json:"duration_us"`
}

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	var (
		since  string
		model  string
		recent int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show segmentation run history",
		Long: `Summarize recorded segmentation runs: totals, average chunk counts,
truncation rate, and a per-model breakdown.

Run history is stored in ~/.ttsplit/runs.db unless disabled in the config.
Use --since to filter by time range (e.g., "24h", "7d", "30d").`,
		Example: `  ttsplit stats --since 7d
  ttsplit stats --model tts-1 --recent 10 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, since, model, recent)
		},
	}

	cmd.Flags().StringVar(&since, "since", "24h", "time range (e.g., 24h, 7d, 30d)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "only include runs for this model")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent runs")

	return cmd
}

func runStats(cmd *cobra.Command, since, model string, recent int) error {
	container, err := mustContainer()
	if err != nil {
		return err
	}
	formatter := GetFormatter()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs := container.RunRepository()
	if runs == nil {
		return fmt.Errorf("run history is disabled (storage.enabled: false)")
	}

	window, err := parseDuration(since)
	if err != nil {
		return fmt.Errorf("invalid time range: %w", err)
	}

	filter := metrics.Last(window)
	if model != "" {
		// Runs are stored under the registry ID; accept API IDs too.
		if limit, ok := container.Limits().Lookup(model); ok {
			model = limit.ModelID
		}
		filter = filter.WithModel(model)
	}

	summary, err := runs.Summarize(ctx, filter)
	if err != nil {
		return err
	}

	out := StatsOutput{
		Since:          since,
		StartDate:      filter.StartDate.Format(time.RFC3339),
		EndDate:        filter.EndDate.Format(time.RFC3339),
		TotalRuns:      summary.TotalRuns,
		TotalChunks:    summary.TotalChunks,
		TotalInput:     summary.TotalInput,
		AvgChunks:      summary.AvgChunks,
		AvgDurationUs:  summary.AvgDuration.Microseconds(),
		Truncations:    summary.Truncations,
		TruncationRate: summary.TruncationRate,
		Models:         make([]ModelStats, len(summary.Models)),
	}
	for i, m := range summary.Models {
		out.Models[i] = ModelStats{
			ModelID:       m.ModelID,
			Runs:          m.Runs,
			Chunks:        m.Chunks,
			Truncations:   m.Truncations,
			AvgDurationUs: m.AvgDuration.Microseconds(),
		}
	}

	if recent > 0 {
		filter.Limit = recent
		records, err := runs.ListRuns(ctx, filter)
		if err != nil {
			return err
		}
		for _, r := range records {
			out.Recent = append(out.Recent, RecentRun{
				ID:         r.ID,
				CreatedAt:  r.CreatedAt.Format(time.RFC3339),
				ModelID:    r.ModelID,
				Unit:       r.Unit,
				MaxSize:    r.MaxSize,
				InputSize:  r.InputSize,
				Chunks:     r.ChunkCount,
				Truncated:  r.Truncated,
				DurationUs: r.Duration.Microseconds(),
			})
		}
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(out)
	}
	return printStatsText(formatter, out)
}

func printStatsText(formatter *output.Formatter, out StatsOutput) error {
	formatter.Header(fmt.Sprintf("Segmentation runs (last %s)", out.Since))
	formatter.Item("Runs", strconv.FormatInt(out.TotalRuns, 10))
	formatter.Item("Chunks", fmt.Sprintf("%d (%.1f per run)", out.TotalChunks, out.AvgChunks))
	formatter.Item("Input", strconv.FormatInt(out.TotalInput, 10))
	formatter.Item("Avg duration", (time.Duration(out.AvgDurationUs) * time.Microsecond).String())
	formatter.Item("Truncations", fmt.Sprintf("%d (%.1f%%)", out.Truncations, out.TruncationRate*100))

	if len(out.Models) > 0 {
		formatter.Println("")
		table := output.TableData{
			Columns: []output.TableColumn{
				{Header: "MODEL"},
				{Header: "RUNS", Align: output.AlignRight},
				{Header: "CHUNKS", Align: output.AlignRight},
				{Header: "TRUNCATED", Align: output.AlignRight},
				{Header: "AVG", Align: output.AlignRight},
			},
		}
		for _, m := range out.Models {
			id := m.ModelID
			if id == "" {
				id = "(ad hoc)"
			}
			table.Rows = append(table.Rows, []string{
				id,
				strconv.FormatInt(m.Runs, 10),
				strconv.FormatInt(m.Chunks, 10),
				strconv.FormatInt(m.Truncations, 10),
				(time.Duration(m.AvgDurationUs) * time.Microsecond).String(),
			})
		}
		if err := formatter.Table(table); err != nil {
			return err
		}
	}

	if len(out.Recent) > 0 {
		formatter.Println("")
		table := output.TableData{
			Columns: []output.TableColumn{
				{Header: "WHEN"},
				{Header: "MODEL"},
				{Header: "LIMIT", Align: output.AlignRight},
				{Header: "INPUT", Align: output.AlignRight},
				{Header: "CHUNKS", Align: output.AlignRight},
				{Header: "TRUNCATED"},
			},
		}
		for _, r := range out.Recent {
			truncated := ""
			if r.Truncated {
				truncated = "yes"
			}
			table.Rows = append(table.Rows, []string{
				r.CreatedAt, r.ModelID, fmt.Sprintf("%d %s", r.MaxSize, r.Unit),
				strconv.Itoa(r.InputSize), strconv.Itoa(r.Chunks), truncated,
			})
		}
		return formatter.Table(table)
	}
	return nil
}

// parseDuration parses a duration string that supports day notation (e.g., "7d").
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("time range must be positive: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("time range must be positive: %s", s)
	}
	return d, nil
}
