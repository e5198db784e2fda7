package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
)

func setupTestRepo(t *testing.T) *RunRepository {
	t.Helper()

	conn, err := NewConnection(MemoryPath)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	if err := conn.Open(); err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	return NewRunRepository(db).(*RunRepository)
}

func seedRuns(t *testing.T, repo *RunRepository, now time.Time) {
	t.Helper()
	runs := []metrics.RunRecord{
		{ID: "r1", ModelID: "openai-tts-1", Provider: "openai", Unit: "characters", MaxSize: 4096, InputSize: 9000, ChunkCount: 3, Duration: 2 * time.Millisecond, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "r2", ModelID: "openai-tts-1", Provider: "openai", Unit: "characters", MaxSize: 4096, InputSize: 100, ChunkCount: 1, Duration: 4 * time.Millisecond, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "r3", ModelID: "google-wavenet", Provider: "google", Unit: "bytes", MaxSize: 5000, InputSize: 5001, ChunkCount: 2, Truncated: true, Duration: 6 * time.Millisecond, CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "r4", Unit: "characters", MaxSize: 10, InputSize: 20, ChunkCount: 2, CreatedAt: now.Add(-72 * time.Hour), CorrelationID: "corr-1"},
	}
	ctx := context.Background()
	for i := range runs {
		if err := repo.SaveRun(ctx, &runs[i]); err != nil {
			t.Fatalf("SaveRun(%s): %v", runs[i].ID, err)
		}
	}
}

func TestRunRepository_SaveRun(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveRun(ctx, nil); err == nil {
		t.Error("expected error for nil run")
	}

	now := time.Now().Truncate(time.Second)
	run := &metrics.RunRecord{
		ID:             "run-1",
		ModelID:        "openai-tts-1",
		Provider:       "openai",
		Unit:           "characters",
		MaxSize:        4096,
		InputSize:      5000,
		ChunkCount:     2,
		ParagraphCount: 2,
		Truncated:      true,
		Duration:       1500 * time.Microsecond,
		CreatedAt:      now,
		CorrelationID:  "abc",
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := repo.SaveRun(ctx, run); err == nil {
		t.Error("expected duplicate ID to fail")
	}

	runs, err := repo.ListRuns(ctx, metrics.Filter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.ModelID != run.ModelID || got.ChunkCount != 2 || got.ParagraphCount != 2 ||
		!got.Truncated || got.Duration != run.Duration || got.CorrelationID != "abc" || !got.CreatedAt.Equal(now) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestRunRepository_ListRuns(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	seedRuns(t, repo, now)

	tests := []struct {
		name    string
		filter  metrics.Filter
		wantIDs []string
	}{
		{name: "all, newest first", filter: metrics.Filter{}, wantIDs: []string{"r3", "r2", "r1", "r4"}},
		{name: "by model", filter: metrics.Filter{}.WithModel("openai-tts-1"), wantIDs: []string{"r2", "r1"}},
		{name: "by unit", filter: metrics.Filter{Unit: "bytes"}, wantIDs: []string{"r3"}},
		{name: "last day", filter: metrics.Filter{}.WithPeriod(now.Add(-24*time.Hour), now.Add(time.Minute)), wantIDs: []string{"r3", "r2", "r1"}},
		{name: "limit and offset", filter: metrics.Filter{Limit: 2, Offset: 1}, wantIDs: []string{"r2", "r1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.ListRuns(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			if len(runs) != len(tt.wantIDs) {
				t.Fatalf("expected %d runs, got %d", len(tt.wantIDs), len(runs))
			}
			for i, id := range tt.wantIDs {
				if runs[i].ID != id {
					t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, id)
				}
			}
		})
	}
}

func TestRunRepository_Summarize(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("empty store", func(t *testing.T) {
		s, err := repo.Summarize(ctx, metrics.Filter{})
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if s.TotalRuns != 0 || s.TruncationRate != 0 || len(s.Models) != 0 {
			t.Errorf("expected empty summary, got %+v", s)
		}
	})

	seedRuns(t, repo, now)

	t.Run("last day", func(t *testing.T) {
		s, err := repo.Summarize(ctx, metrics.Filter{}.WithPeriod(now.Add(-24*time.Hour), now.Add(time.Minute)))
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if s.TotalRuns != 3 || s.TotalChunks != 6 || s.Truncations != 1 || s.TotalInput != 14101 {
			t.Errorf("unexpected totals: %+v", s)
		}
		if s.AvgChunks != 2 {
			t.Errorf("AvgChunks = %v, want 2", s.AvgChunks)
		}
		if s.AvgDuration != 4*time.Millisecond {
			t.Errorf("AvgDuration = %v, want 4ms", s.AvgDuration)
		}
		if len(s.Models) != 2 || s.Models[0].ModelID != "openai-tts-1" || s.Models[0].Runs != 2 {
			t.Errorf("unexpected model breakdown: %+v", s.Models)
		}
		if s.Models[1].Truncations != 1 {
			t.Errorf("expected google-wavenet truncation, got %+v", s.Models[1])
		}
	})

	t.Run("raw limits group under empty model", func(t *testing.T) {
		s, err := repo.Summarize(ctx, metrics.Filter{})
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		found := false
		for _, m := range s.Models {
			if m.ModelID == "" && m.Runs == 1 {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a row for raw-limit runs: %+v", s.Models)
		}
	})
}

func TestConnection(t *testing.T) {
	t.Run("file database persists migrations", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "runs.db")

		conn, _ := NewConnection(path)
		if err := conn.Open(); err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := conn.Open(); err == nil {
			t.Error("expected error on double open")
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if _, err := conn.DB(); err == nil {
			t.Error("expected error from DB after Close")
		}

		// Reopening must not re-apply migrations.
		conn2, _ := NewConnection(path)
		if err := conn2.Open(); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer conn2.Close()

		db, _ := conn2.DB()
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != len(migrations) {
			t.Errorf("expected %d migrations, got %d", len(migrations), n)
		}
		if conn2.Path() != path {
			t.Errorf("Path() = %s", conn2.Path())
		}
	})

	t.Run("default path", func(t *testing.T) {
		conn, err := NewConnection("")
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}
		if filepath.Base(conn.Path()) != "runs.db" {
			t.Errorf("unexpected default path %s", conn.Path())
		}
	})

	t.Run("close unopened", func(t *testing.T) {
		conn, _ := NewConnection(MemoryPath)
		if err := conn.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
}
