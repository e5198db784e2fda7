package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jbctechsolutions/ttsplit/internal/application"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/testutil"
	"github.com/jbctechsolutions/ttsplit/internal/presentation/cli/output"
)

// setupHome points the default config and run history at a temp directory.
func setupHome(t *testing.T) string {
	t.Helper()
	home := testutil.IsolateHome(t)
	output.ResetColorDetection()
	return home
}

// executeCommand runs the CLI with args and stdin, returning stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(Shutdown)

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "ttsplit" {
		t.Errorf("expected Use='ttsplit', got %q", cmd.Use)
	}

	wantSubcmds := []string{"version", "init", "split", "paragraphs", "count", "models", "stats", "repl"}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}
	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	for _, flag := range []string{"config", "output", "verbose"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"basic", []string{"version"}, "Version: " + Version},
		{"short", []string{"version", "--short"}, Version + "\n"},
		{"json", []string{"version", "-o", "json"}, `"go_version"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "", tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("output %q missing %q", stdout, tt.want)
			}
		})
	}
}

func TestSplitCmd_Text(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, testutil.ThreeSentences,
		"split", "--unit", "characters", "--max", "20")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	want := "Hello there.\n---\nGeneral Kenobi.\n---\nYou are a bold one.\n"
	if stdout != want {
		t.Errorf("got %q, want %q", stdout, want)
	}
}

func TestSplitCmd_JSON(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, "Grüße aus Köln. Bis bald.",
		"split", "--model", "google-wavenet", "--max", "20", "-o", "json")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	var out SplitOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if out.Source != stdinName || out.ModelID != "google-wavenet" || out.Unit != "bytes" || out.MaxSize != 20 {
		t.Errorf("unexpected header: %+v", out)
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %+v", out.Chunks)
	}
	if out.Chunks[0].Text != "Grüße aus Köln." || out.Chunks[0].Size != 18 {
		t.Errorf("unexpected first chunk: %+v", out.Chunks[0])
	}
	for _, c := range out.Chunks {
		if c.Size > out.MaxSize {
			t.Errorf("chunk %d exceeds limit: %+v", c.Index, c)
		}
		if c.Paragraph != nil {
			t.Errorf("flat split must not carry paragraph indices")
		}
	}
}

func TestSplitCmd_DefaultModel(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, "Short text.", "split", "-o", "json")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	var out SplitOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatal(err)
	}
	if out.ModelID != config.DefaultModel || out.MaxSize != 4096 || len(out.Chunks) != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestSplitCmd_Paragraphs(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, testutil.TwoParagraphs,
		"split", "--paragraphs", "--max", "12", "-o", "json")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	var out SplitOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatal(err)
	}
	if out.Unit != "characters" || out.MaxSize != 12 {
		t.Errorf("paragraph mode should use characters, got %+v", out)
	}

	var texts []string
	var paragraphs []int
	for _, c := range out.Chunks {
		texts = append(texts, c.Text)
		if c.Paragraph == nil {
			t.Fatalf("chunk %d missing paragraph index", c.Index)
		}
		paragraphs = append(paragraphs, *c.Paragraph)
	}
	if strings.Join(texts, "|") != "First para.|Second para|is here." {
		t.Errorf("unexpected chunks %q", texts)
	}
	if len(paragraphs) != 3 || paragraphs[0] != 0 || paragraphs[1] != 1 || paragraphs[2] != 1 {
		t.Errorf("unexpected paragraph indices %v", paragraphs)
	}
}

func TestSplitCmd_ParagraphsText(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, "One.\nTwo.", "split", "-p", "--separator", "")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if stdout != "[0] One.\n[1] Two.\n" {
		t.Errorf("got %q", stdout)
	}
}

func TestSplitCmd_Files(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.txt", "Alpha one. Alpha two.")
	b := testutil.WriteFile(t, dir, "b.txt", "Beta.")

	stdout, _, err := executeCommand(t, "", "split", "--unit", "chars", "--max", "12", a, b, "-o", "json")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	var outs []SplitOutput
	if err := json.Unmarshal([]byte(stdout), &outs); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if len(outs) != 2 || outs[0].Source != a || outs[1].Source != b {
		t.Fatalf("unexpected sources: %+v", outs)
	}
	if len(outs[0].Chunks) != 2 || len(outs[1].Chunks) != 1 {
		t.Errorf("unexpected chunk counts: %d, %d", len(outs[0].Chunks), len(outs[1].Chunks))
	}

	stdout, _, err = executeCommand(t, "", "split", "--unit", "chars", "--max", "12", a, b)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !strings.Contains(stdout, a+"\n") || !strings.Contains(stdout, b+"\n") {
		t.Errorf("text output should head each file: %q", stdout)
	}
}

func TestSplitCmd_Truncation(t *testing.T) {
	setupHome(t)

	stdout, stderr, err := executeCommand(t, "Supercalifragilistic", "split", "--unit", "characters", "--max", "5")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if stdout != "Super\n" {
		t.Errorf("got %q", stdout)
	}
	if !strings.Contains(stderr, "truncated") {
		t.Errorf("expected truncation warning, got %q", stderr)
	}
}

func TestSplitCmd_Errors(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown model", []string{"split", "--model", "no-such-model"}},
		{"unknown unit", []string{"split", "--unit", "syllables", "--max", "5"}},
		{"negative max", []string{"split", "--unit", "characters", "--max", "-1"}},
		{"unknown encoding", []string{"split", "--unit", "tokens", "--max", "5", "--encoding", "nope"}},
		{"missing file", []string{"split", "/does/not/exist.txt"}},
		{"watch stdin", []string{"split", "--watch"}},
		{"stdin twice", []string{"split", "-", "-"}},
		{"bad output format", []string{"split", "-o", "yaml"}},
		{"missing config file", []string{"split", "--config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "Some text.", tt.args...)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSplitCmd_ConfigModels(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	cfgPath := testutil.WriteFile(t, dir, "config.yaml", `
segmentation:
  default_model: my-voice
models:
  - model_id: my-voice
    provider: custom
    unit: bytes
    max_size: 9
storage:
  enabled: false
`)

	stdout, _, err := executeCommand(t, "Abc def. Ghi jkl.", "split", "--config", cfgPath, "--separator", "")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if stdout != "Abc def.\nGhi jkl.\n" {
		t.Errorf("got %q", stdout)
	}
}

func TestParagraphsCmd(t *testing.T) {
	setupHome(t)

	stdout, _, err := executeCommand(t, "  One  \r\n\r\n\nTwo\n", "paragraphs", "-o", "json")
	if err != nil {
		t.Fatalf("paragraphs: %v", err)
	}

	var out ParagraphsOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatal(err)
	}
	if strings.Join(out.Paragraphs, "|") != "One|Two" {
		t.Errorf("unexpected paragraphs %q", out.Paragraphs)
	}

	stdout, _, err = executeCommand(t, "One\nTwo", "paragraphs")
	if err != nil {
		t.Fatalf("paragraphs: %v", err)
	}
	if stdout != "[0] One\n[1] Two\n" {
		t.Errorf("got %q", stdout)
	}
}

func TestCountCmd(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name     string
		input    string
		args     []string
		wantSize int
		wantFits bool
	}{
		{"bytes", "héllo", []string{"--unit", "bytes", "--max", "5"}, 6, false},
		{"characters", "héllo", []string{"--unit", "characters", "--max", "5"}, 5, true},
		{"model", "héllo", []string{"--model", "tts-1"}, 5, true},
		{"heuristic tokens", "abcdefgh", []string{"--unit", "tokens", "--max", "2", "--encoding", "heuristic"}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"count", "-o", "json"}, tt.args...)
			stdout, _, err := executeCommand(t, tt.input, args...)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			var out CountOutput
			if err := json.Unmarshal([]byte(stdout), &out); err != nil {
				t.Fatal(err)
			}
			if out.Size != tt.wantSize || out.Fits != tt.wantFits {
				t.Errorf("got size=%d fits=%v, want size=%d fits=%v", out.Size, out.Fits, tt.wantSize, tt.wantFits)
			}
		})
	}
}

func TestModelsCmd(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name string
		args []string
		want func(provider.ModelLimit) bool
	}{
		{"all", nil, func(provider.ModelLimit) bool { return true }},
		{"by provider", []string{"--provider", "Google"}, func(l provider.ModelLimit) bool { return l.Provider == provider.ProviderGoogle }},
		{"by unit", []string{"--unit", "tokens"}, func(l provider.ModelLimit) bool { return l.Unit == segment.UnitTokens }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"models", "-o", "json"}, tt.args...)
			stdout, _, err := executeCommand(t, "", args...)
			if err != nil {
				t.Fatalf("models: %v", err)
			}

			var got []provider.ModelLimit
			if err := json.Unmarshal([]byte(stdout), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			want := 0
			for _, l := range provider.DefaultLimits() {
				if tt.want(l) {
					want++
				}
			}
			if len(got) != want || want == 0 {
				t.Errorf("expected %d models, got %d", want, len(got))
			}
		})
	}

	t.Run("table marks default", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "", "models")
		if err != nil {
			t.Fatalf("models: %v", err)
		}
		if !strings.Contains(stdout, config.DefaultModel+" *") {
			t.Errorf("default model not marked:\n%s", stdout)
		}
	})
}

func TestStatsCmd(t *testing.T) {
	setupHome(t)

	for _, text := range []string{"One. Two.", "Supercalifragilistic"} {
		if _, _, err := executeCommand(t, text, "split", "--model", "tts-1", "--max", "5"); err != nil {
			t.Fatalf("split: %v", err)
		}
	}

	stdout, _, err := executeCommand(t, "", "stats", "--model", "tts-1", "--recent", "5", "-o", "json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	var out StatsOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if out.TotalRuns != 2 || out.Truncations != 1 || out.TruncationRate != 0.5 {
		t.Errorf("unexpected summary: %+v", out)
	}
	if len(out.Models) != 1 || out.Models[0].ModelID != "openai-tts-1" {
		t.Errorf("unexpected models: %+v", out.Models)
	}
	if len(out.Recent) != 2 {
		t.Errorf("expected 2 recent runs, got %d", len(out.Recent))
	}

	stdout, _, err = executeCommand(t, "", "stats", "--since", "7d")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(stdout, "Runs: 2") || !strings.Contains(stdout, "openai-tts-1") {
		t.Errorf("unexpected text output:\n%s", stdout)
	}
}

func TestStatsCmd_Errors(t *testing.T) {
	setupHome(t)
	cfgPath := testutil.WriteFile(t, t.TempDir(), "config.yaml", "storage:\n  enabled: false\n")

	if _, _, err := executeCommand(t, "", "stats", "--config", cfgPath); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("expected disabled history error, got %v", err)
	}
	if _, _, err := executeCommand(t, "", "stats", "--since", "yesterday"); err == nil {
		t.Error("expected invalid time range error")
	}
}

func TestInitCmd(t *testing.T) {
	home := setupHome(t)
	configFile := filepath.Join(home, ".ttsplit", "config.yaml")

	stdout, _, err := executeCommand(t, "", "init", "--defaults", "-o", "json")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	var result InitResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Initialized || result.ConfigFile != configFile {
		t.Errorf("unexpected result: %+v", result)
	}

	_, stderr, err := executeCommand(t, "", "init", "--defaults")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("expected existing config warning, got %q", stderr)
	}

	// Unknown model is rejected and asked again; EOF keeps the default size.
	if _, _, err := executeCommand(t, "nope\ntts-1-hd\n", "init", "--force"); err != nil {
		t.Fatalf("interactive init: %v", err)
	}
	loader, _ := config.NewLoader("")
	cfg, err := loader.LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Segmentation.DefaultModel != "openai-tts-1-hd" {
		t.Errorf("DefaultModel = %q", cfg.Segmentation.DefaultModel)
	}
	if cfg.Segmentation.ParagraphMaxChars != provider.DefaultParagraphMaxChars {
		t.Errorf("ParagraphMaxChars = %d", cfg.Segmentation.ParagraphMaxChars)
	}
}

func newTestSession(t *testing.T) (*replSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Storage.Enabled = false
	container, err := application.NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { container.Close() })

	var stdout, stderr bytes.Buffer
	formatter := output.NewFormatter(output.WithWriter(&stdout), output.WithStatusWriter(&stderr), output.WithColor(false))
	limit, err := container.Segmenter().Limit(config.DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	return newReplSession(container, formatter, limit), &stdout, &stderr
}

func TestReplSession_Commands(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	steps := []struct {
		line     string
		wantErr  bool
		wantExit bool
		check    func(*replSession) bool
	}{
		{line: "/model google-neural2", check: func(s *replSession) bool { return s.limit.Unit == segment.UnitBytes && s.limit.MaxSize == 5000 }},
		{line: "/max 40", check: func(s *replSession) bool { return s.limit.MaxSize == 40 }},
		{line: "/encoding o200k_base", wantErr: true},
		{line: "/unit tokens", check: func(s *replSession) bool { return s.limit.EncodingName == config.DefaultEncoding }},
		{line: "/encoding heuristic", check: func(s *replSession) bool { return s.limit.EncodingName == "heuristic" }},
		{line: "/encoding nope", wantErr: true},
		{line: "/unit bytes", check: func(s *replSession) bool { return s.limit.EncodingName == "" }},
		{line: "/paragraphs", check: func(s *replSession) bool { return s.paragraphs }},
		{line: "/max zero", wantErr: true},
		{line: "/max 0", wantErr: true},
		{line: "/model", wantErr: true},
		{line: "/model no-such-model", wantErr: true},
		{line: "/bogus", wantErr: true},
		{line: "/help"},
		{line: "/limit"},
		{line: "   "},
		{line: "/QUIT", wantExit: true},
	}

	for _, step := range steps {
		exit, err := s.handle(ctx, step.line)
		if (err != nil) != step.wantErr {
			t.Errorf("%q: error = %v, wantErr %v", step.line, err, step.wantErr)
		}
		if exit != step.wantExit {
			t.Errorf("%q: exit = %v, want %v", step.line, exit, step.wantExit)
		}
		if step.check != nil && !step.check(s) {
			t.Errorf("%q: unexpected state %+v paragraphs=%v", step.line, s.limit, s.paragraphs)
		}
	}
}

func TestReplSession_Split(t *testing.T) {
	s, stdout, stderr := newTestSession(t)
	ctx := context.Background()

	for _, line := range []string{"/unit characters", "/max 16"} {
		if _, err := s.handle(ctx, line); err != nil {
			t.Fatal(err)
		}
	}
	stdout.Reset()

	if _, err := s.handle(ctx, "Hello there. General Kenobi."); err != nil {
		t.Fatalf("split: %v", err)
	}
	want := "[0] 12/16 Hello there.\n[1] 15/16 General Kenobi.\n"
	if stdout.String() != want {
		t.Errorf("got %q, want %q", stdout.String(), want)
	}

	stdout.Reset()
	if _, err := s.handle(ctx, "Pneumonoultramicroscopic"); err != nil {
		t.Fatalf("split: %v", err)
	}
	if !strings.Contains(stderr.String(), "truncated") {
		t.Errorf("expected truncation warning, got %q", stderr.String())
	}
}

func TestResolveLimit(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Enabled = false
	container, err := application.NewContainer(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer container.Close()

	tests := []struct {
		name    string
		flags   limitFlags
		want    provider.ModelLimit
		wantErr bool
	}{
		{
			name:  "default model",
			flags: limitFlags{},
			want:  mustLimit(t, container, config.DefaultModel),
		},
		{
			name:  "ad hoc",
			flags: limitFlags{Unit: "bytes", Max: 100},
			want:  provider.ModelLimit{Unit: segment.UnitBytes, MaxSize: 100},
		},
		{
			name:  "ad hoc tokens use default encoding",
			flags: limitFlags{Unit: "tokens", Max: 50},
			want:  provider.ModelLimit{Unit: segment.UnitTokens, MaxSize: 50, EncodingName: config.DefaultEncoding},
		},
		{
			name:  "model with max override",
			flags: limitFlags{Model: "tts-1", Max: 100},
			want: func() provider.ModelLimit {
				l := mustLimit(t, container, "tts-1")
				l.MaxSize = 100
				return l
			}(),
		},
		{
			name:  "unit change drops model encoding",
			flags: limitFlags{Model: "gpt-4o-mini-tts", Unit: "characters"},
			want: func() provider.ModelLimit {
				l := mustLimit(t, container, "gpt-4o-mini-tts")
				l.Unit = segment.UnitCharacters
				l.EncodingName = ""
				return l
			}(),
		},
		{name: "unknown model", flags: limitFlags{Model: "nope"}, wantErr: true},
		{name: "unknown unit", flags: limitFlags{Unit: "lines", Max: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveLimit(container, tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func mustLimit(t *testing.T, container *application.Container, id string) provider.ModelLimit {
	t.Helper()
	l, err := container.Segmenter().Limit(id)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"0d", 0, true},
		{"-1h", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
