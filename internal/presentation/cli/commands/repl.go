package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ttsplit/internal/application"
	"github.com/jbctechsolutions/ttsplit/internal/application/segmentation"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// NewReplCmd creates the repl command.
func NewReplCmd() *cobra.Command {
	var opts limitFlags

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive splitting loop",
		Long: `Start an interactive loop that splits every line you enter under the
current limit.

Special commands:
  /model <id>       - Use the limit of a known model
  /unit <unit>      - Count characters, bytes or tokens
  /max <n>          - Set the maximum chunk size
  /encoding <name>  - Set the tokenizer encoding for token limits
  /paragraphs       - Toggle paragraph mapping
  /limit            - Show the current limit
  /help             - Show help message
  /exit, /quit      - Leave the loop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}

	addLimitFlags(cmd, &opts)
	return cmd
}

func runRepl(cmd *cobra.Command, opts limitFlags) error {
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
	session := newReplSession(container, formatter, limit)

	rlCfg := &readline.Config{
		Prompt:          "ttsplit> ",
		AutoComplete:    session.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	}
	if loader, err := config.NewLoader(""); err == nil {
		rlCfg.HistoryFile = filepath.Join(loader.ConfigDir(), "repl_history")
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	formatter.Info("Current limit: %s. Type /help for commands.", describeLimit(session.limit))

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		exit, err := session.handle(ctx, line)
		if err != nil {
			formatter.Error("%s", err.Error())
		}
		if exit {
			break
		}
	}
	return nil
}

// replSession holds the state of one interactive loop.
type replSession struct {
	container  *application.Container
	formatter  *output.Formatter
	limit      provider.ModelLimit
	paragraphs bool
}

func newReplSession(container *application.Container, formatter *output.Formatter, limit provider.ModelLimit) *replSession {
	return &replSession{container: container, formatter: formatter, limit: limit}
}

// handle processes one input line. It reports whether the loop should end.
func (s *replSession) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		return s.command(line)
	}
	return false, s.split(ctx, line)
}

func (s *replSession) command(line string) (bool, error) {
	parts := strings.Fields(line)
	name, args := strings.ToLower(parts[0]), parts[1:]

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		s.formatter.Header("Commands")
		s.formatter.Item("/model <id>", "Use the limit of a known model")
		s.formatter.Item("/unit <unit>", "Count characters, bytes or tokens")
		s.formatter.Item("/max <n>", "Set the maximum chunk size")
		s.formatter.Item("/encoding <name>", "Set the tokenizer encoding")
		s.formatter.Item("/paragraphs", "Toggle paragraph mapping")
		s.formatter.Item("/limit", "Show the current limit")
		s.formatter.Item("/exit, /quit", "Leave the loop")
		return false, nil

	case "/limit":
		s.showLimit()
		return false, nil

	case "/paragraphs":
		s.paragraphs = !s.paragraphs
		s.formatter.Success("Paragraph mapping %s", onOff(s.paragraphs))
		return false, nil

	case "/model":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /model <id>")
		}
		limit, err := s.container.Segmenter().Limit(args[0])
		if err != nil {
			return false, err
		}
		s.limit = limit

	case "/unit":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /unit <characters|bytes|tokens>")
		}
		unit, err := segment.ParseUnit(args[0])
		if err != nil {
			return false, err
		}
		if unit != s.limit.Unit {
			s.limit.EncodingName = ""
		}
		s.limit.Unit = unit
		if unit == segment.UnitTokens && s.limit.EncodingName == "" {
			s.limit.EncodingName = s.container.Config().Segmentation.DefaultEncoding
		}

	case "/max":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /max <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return false, fmt.Errorf("max must be a positive integer: %s", args[0])
		}
		s.limit.MaxSize = n

	case "/encoding":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /encoding <name>")
		}
		if s.limit.Unit != segment.UnitTokens {
			return false, fmt.Errorf("encoding applies only to token limits (current unit: %s)", s.limit.Unit)
		}
		if _, err := s.container.Tokenizers().Tokenizer(args[0]); err != nil {
			return false, err
		}
		s.limit.EncodingName = args[0]

	default:
		return false, fmt.Errorf("unknown command: %s (type /help for help)", name)
	}

	s.showLimit()
	return false, nil
}

func (s *replSession) showLimit() {
	s.formatter.Success("Limit: %s, paragraphs %s", describeLimit(s.limit), onOff(s.paragraphs))
}

func (s *replSession) split(ctx context.Context, text string) error {
	req := segmentation.Request{Limit: s.limit, Paragraphs: s.paragraphs}
	outputs, err := segmentSources(ctx, s.container.Segmenter(), []source{{Name: "input", Text: text}}, req)
	if err != nil {
		return err
	}
	out := outputs[0]

	if s.formatter.Format() == output.FormatJSON {
		return s.formatter.JSON(out)
	}
	for _, chunk := range out.Chunks {
		label := fmt.Sprintf("%s %d/%d", bracket(chunk.Index), chunk.Size, out.MaxSize)
		if chunk.Paragraph != nil {
			label += fmt.Sprintf(" ¶%d", *chunk.Paragraph)
		}
		s.formatter.Println("%s %s", s.formatter.Dim(label), chunk.Text)
	}
	if out.Truncated {
		s.formatter.Warning("text truncated to fit %d %s", out.MaxSize, out.Unit)
	}
	return nil
}

// completer offers command names and known model IDs.
func (s *replSession) completer() readline.AutoCompleter {
	models := func(string) []string {
		all := s.container.Limits().All()
		ids := make([]string, len(all))
		for i, l := range all {
			ids[i] = l.ModelID
		}
		return ids
	}
	units := make([]readline.PrefixCompleterInterface, 0, len(segment.Units()))
	for _, u := range segment.Units() {
		units = append(units, readline.PcItem(u.String()))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("/model", readline.PcItemDynamic(models)),
		readline.PcItem("/unit", units...),
		readline.PcItem("/max"),
		readline.PcItem("/encoding"),
		readline.PcItem("/paragraphs"),
		readline.PcItem("/limit"),
		readline.PcItem("/help"),
		readline.PcItem("/exit"),
		readline.PcItem("/quit"),
	)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
