package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/application"
	"github.com/jbctechsolutions/ttsplit/internal/application/segmentation"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/watch"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// splitFlags holds the flags for the split command.
type splitFlags struct {
	limitFlags
	Paragraphs bool
	Watch      bool
	Separator  string
}

// ChunkOutput is one chunk in JSON output.
type ChunkOutput struct {
	Index     int    `json:"index"`
	Paragraph *int   `json:"paragraph,omitempty"`
	Size      int    `json:"size"`
	Text      string `json:"text"`
}

// SplitOutput is the JSON form of one segmented input.
type SplitOutput struct {
	Source    string        `json:"source"`
	ModelID   string        `json:"model_id,omitempty"`
	Unit      string        `json:"unit"`
	MaxSize   int           `json:"max_size"`
	Encoding  string        `json:"encoding,omitempty"`
	Truncated bool          `json:"truncated"`
	Chunks    []ChunkOutput `json:"chunks"`
}

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	var opts splitFlags

	cmd := &cobra.Command{
		Use:   "split [files...]",
		Short: "Split text into chunks that fit a model's input limit",
		Long: `Split text into chunks that fit a model's input limit.

Text is read from the named files, or from standard input when no file is
given ("-" also means standard input). Chunks break at sentence boundaries,
then at word boundaries, and are truncated only when a single word exceeds
the limit.

The limit comes from --model (or the configured default model). --unit,
--max and --encoding override it; --unit with --max and no --model applies
an ad hoc limit.

With --paragraphs, text is first split into paragraphs and every chunk is
tagged with the index of the paragraph it came from. Without a model, unit
or max flag the configured paragraph chunk size in characters is used.

Several files are segmented concurrently.`,
		Example: `  # Split a file for OpenAI tts-1
  ttsplit split --model tts-1 script.txt

  # Google Cloud TTS counts UTF-8 bytes
  ttsplit split --model google-wavenet chapter*.txt -o json

  # Ad hoc token limit
  echo "Hello there. General Kenobi." | ttsplit split --unit tokens --max 5 --encoding o200k_base

  # Paragraph map for playback sync, re-split on every save
  ttsplit split --paragraphs --watch notes.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, args, opts)
		},
	}

	addLimitFlags(cmd, &opts.limitFlags)
	cmd.Flags().BoolVarP(&opts.Paragraphs, "paragraphs", "p", false, "map each chunk to its source paragraph")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-split files whenever they change")
	cmd.Flags().StringVar(&opts.Separator, "separator", "---", "line printed between chunks in text output")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string, opts splitFlags) error {
	container, err := mustContainer()
	if err != nil {
		return err
	}
	formatter := GetFormatter()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Watch && (len(args) == 0 || containsStdin(args)) {
		return fmt.Errorf("--watch requires file arguments")
	}

	req, err := splitRequest(container, opts)
	if err != nil {
		return err
	}

	sources, err := readSources(cmd, args)
	if err != nil {
		return err
	}

	outputs, err := segmentSources(ctx, container.Segmenter(), sources, req)
	if err != nil {
		return err
	}
	if err := printSplit(formatter, outputs, opts.Separator); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}
	return watchAndSplit(ctx, container, formatter, args, req, opts.Separator)
}

// splitRequest resolves the limit and mode selected by opts.
func splitRequest(container *application.Container, opts splitFlags) (segmentation.Request, error) {
	if opts.Paragraphs && opts.Model == "" && opts.Unit == "" {
		maxSize := container.Config().Segmentation.ParagraphMaxChars
		if opts.Max != 0 {
			maxSize = opts.Max
		}
		return segmentation.Request{
			Limit:      provider.ModelLimit{Unit: segment.UnitCharacters, MaxSize: maxSize},
			Paragraphs: true,
		}, nil
	}

	limit, err := resolveLimit(container, opts.limitFlags)
	if err != nil {
		return segmentation.Request{}, err
	}
	return segmentation.Request{Limit: limit, Paragraphs: opts.Paragraphs}, nil
}

// segmentSources segments every source under req. Flat splits of several
// sources run as one concurrent batch.
func segmentSources(ctx context.Context, svc *segmentation.Service, sources []source, req segmentation.Request) ([]SplitOutput, error) {
	results := make([]segment.Result, len(sources))

	if len(sources) > 1 && !req.Paragraphs {
		texts := make([]string, len(sources))
		for i, src := range sources {
			texts[i] = src.Text
		}
		batch, err := svc.SplitBatch(ctx, texts, req.Limit)
		if err != nil {
			return nil, err
		}
		copy(results, batch)
	} else {
		for i, src := range sources {
			r := req
			r.Text = src.Text
			res, err := svc.Segment(ctx, r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", src.Name, err)
			}
			results[i] = res
		}
	}

	outputs := make([]SplitOutput, len(sources))
	for i, src := range sources {
		out, err := toSplitOutput(ctx, svc, src.Name, req, results[i])
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}

func toSplitOutput(ctx context.Context, svc *segmentation.Service, name string, req segmentation.Request, res segment.Result) (SplitOutput, error) {
	out := SplitOutput{
		Source:    name,
		ModelID:   req.Limit.ModelID,
		Unit:      req.Limit.Unit.String(),
		MaxSize:   req.Limit.MaxSize,
		Encoding:  req.Limit.EncodingName,
		Truncated: res.Truncated,
		Chunks:    make([]ChunkOutput, len(res.Chunks)),
	}
	for i, chunk := range res.Chunks {
		size, err := svc.Count(ctx, chunk, req.Limit.Unit, req.Limit.EncodingName)
		if err != nil {
			return SplitOutput{}, err
		}
		out.Chunks[i] = ChunkOutput{Index: i, Size: size, Text: chunk}
		if req.Paragraphs {
			p := res.ParagraphIndices[i]
			out.Chunks[i].Paragraph = &p
		}
	}
	return out, nil
}

// printSplit writes segmented outputs in the formatter's format.
func printSplit(formatter *output.Formatter, outputs []SplitOutput, separator string) error {
	if formatter.Format() == output.FormatJSON {
		if len(outputs) == 1 {
			return formatter.JSON(outputs[0])
		}
		return formatter.JSON(outputs)
	}

	for i, out := range outputs {
		if len(outputs) > 1 {
			if i > 0 {
				formatter.Println("")
			}
			formatter.Header(out.Source)
		}
		for j, chunk := range out.Chunks {
			if j > 0 && separator != "" {
				formatter.Println("%s", formatter.Dim(separator))
			}
			if chunk.Paragraph != nil {
				formatter.Println("%s %s", formatter.Dim(bracket(*chunk.Paragraph)), chunk.Text)
				continue
			}
			formatter.Println("%s", chunk.Text)
		}
		if out.Truncated {
			formatter.Warning("%s: text truncated to fit %d %s", out.Source, out.MaxSize, out.Unit)
		}
	}
	return nil
}

// watchAndSplit re-segments files as they change until ctx is cancelled.
func watchAndSplit(ctx context.Context, container *application.Container, formatter *output.Formatter, files []string, req segmentation.Request, separator string) error {
	watcher, err := watch.NewWatcher(watch.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Watch(files...); err != nil {
		return err
	}

	names := make(map[string]string, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		names[abs] = f
	}

	logger := container.Logger()
	formatter.Info("Watching %s for changes (Ctrl+C to stop)", strings.Join(files, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			formatter.Warning("watch error: %v", err)
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			name := names[ev.Path]
			if name == "" {
				name = ev.Path
			}
			logger.DebugContext(ctx, "watched file changed", "path", ev.Path, "event", string(ev.Type))

			if ev.Type == watch.EventRemove {
				formatter.Warning("%s was removed", name)
				continue
			}

			text, err := readFile(ev.Path)
			if err != nil {
				formatter.Warning("%v", err)
				continue
			}
			outputs, err := segmentSources(ctx, container.Segmenter(), []source{{Name: name, Text: text}}, req)
			if err != nil {
				formatter.Error("%v", err)
				continue
			}
			if formatter.Format() != output.FormatJSON {
				formatter.Println("")
				formatter.Header(name)
			}
			if err := printSplit(formatter, outputs, separator); err != nil {
				return err
			}
		}
	}
}

func containsStdin(args []string) bool {
	for _, a := range args {
		if a == "-" {
			return true
		}
	}
	return false
}
