package application

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "runs.db")
	return cfg
}

func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Config() == nil {
		t.Error("Config should not be nil")
	}
	if container.Logger() == nil {
		t.Error("Logger should not be nil")
	}
	if container.Tracer() == nil || container.Tracer().Enabled() {
		t.Error("Tracer should be a no-op by default")
	}
	if container.Limits() == nil || container.Limits().Len() != len(provider.DefaultLimits()) {
		t.Error("Limits should hold the default table")
	}
	if container.Tokenizers() == nil {
		t.Error("Tokenizers should not be nil")
	}
	if container.RunRepository() == nil {
		t.Error("RunRepository should not be nil when storage is enabled")
	}
	if container.Segmenter() == nil {
		t.Error("Segmenter should not be nil")
	}
}

func TestNewContainer_RecordsRuns(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	if _, err := container.Segmenter().SplitForModel(ctx, "Hello there. General Kenobi.", "tts-1"); err != nil {
		t.Fatalf("SplitForModel: %v", err)
	}

	runs, err := container.RunRepository().ListRuns(ctx, metrics.Filter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ModelID != "openai-tts-1" {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestNewContainer_ConfigModels(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Enabled = false
	cfg.Models = []provider.ModelLimit{
		{ModelID: "my-voice", Provider: "custom", Unit: segment.UnitBytes, MaxSize: 8},
	}

	container, err := NewContainer(cfg, true)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.RunRepository() != nil {
		t.Error("RunRepository should be nil when storage is disabled")
	}
	chunks, err := container.Segmenter().SplitForModel(context.Background(), "Abc def. Ghi jkl.", "my-voice")
	if err != nil {
		t.Fatalf("SplitForModel: %v", err)
	}
	if strings.Join(chunks, "|") != "Abc def.|Ghi jkl." {
		t.Errorf("got %q", chunks)
	}
}

func TestNewContainer_WithNilConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	container, err := NewContainer(nil, false)
	if err != nil {
		t.Fatalf("NewContainer with nil config failed: %v", err)
	}
	defer container.Close()

	if container.Config() == nil {
		t.Error("Config should be set to default when nil is passed")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Segmentation.DefaultModel = "no-such-model"

	if _, err := NewContainer(cfg, false); err == nil {
		t.Error("expected error for invalid configuration")
	}
}

func TestContainer_Close(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}

	if err := container.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
