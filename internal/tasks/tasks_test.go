package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/services"
)

// mockLibrary is an in-package test double for [services.LibraryService].
type mockLibrary struct {
	name string

	savedTracksFn func(limit, offset int) (*services.SavedTrackPage, error)
	saveTrackFn   func(trackID string) error

	fetchCalls int
	saved      []string
	saveCalls  map[string]int
}

func newMockLibrary() *mockLibrary {
	return &mockLibrary{name: "mock", saveCalls: map[string]int{}}
}

func (m *mockLibrary) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *mockLibrary) CurrentUser(ctx context.Context) (*services.UserProfile, error) {
	return &services.UserProfile{ID: "mock", DisplayName: "Mock"}, nil
}

func (m *mockLibrary) SavedTracks(ctx context.Context, limit, offset int) (*services.SavedTrackPage, error) {
	m.fetchCalls++
	if m.savedTracksFn == nil {
		return &services.SavedTrackPage{}, nil
	}
	return m.savedTracksFn(limit, offset)
}

func (m *mockLibrary) SaveTrack(ctx context.Context, trackID string) error {
	m.saveCalls[trackID]++
	if m.saveTrackFn != nil {
		if err := m.saveTrackFn(trackID); err != nil {
			return err
		}
	}
	m.saved = append(m.saved, trackID)
	return nil
}

func (m *mockLibrary) Name() string { return m.name }

// mockCache records the last library it was handed.
type mockCache struct {
	replaced []models.SavedTrack
	err      error
}

func (m *mockCache) ReplaceLibrary(tracks []models.SavedTrack) error {
	m.replaced = tracks
	return m.err
}

// tracksOfSize builds n tracks saved a minute apart, oldest first.
func tracksOfSize(n int) []models.SavedTrack {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tracks := make([]models.SavedTrack, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, models.SavedTrack{
			ID:      trackID(i),
			Title:   trackID(i),
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return tracks
}

func trackID(i int) string {
	return string(rune('a'+i)) + "-track"
}

// fastOpts keeps retries quick in tests.
func fastOpts() TransferOpts {
	return TransferOpts{MaxRetries: 3, RetryBackoff: time.Millisecond, Delay: NoDelay{}}
}

// drainEvents closes and collects everything buffered on the progress channel.
func drainEvents(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var events []ProgressUpdate
	for update := range progress {
		events = append(events, update)
	}
	return events
}

// transferEvents filters for per-track events.
func transferEvents(events []ProgressUpdate) []ProgressUpdate {
	var filtered []ProgressUpdate
	for _, update := range events {
		if update.Phase == TransferTrack {
			filtered = append(filtered, update)
		}
	}
	return filtered
}

func apiErr(status int) *services.APIError {
	return &services.APIError{StatusCode: status, Endpoint: "/me/tracks"}
}

func TestRun(t *testing.T) {
	t.Run("End To End Preserves Chronological Order", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		// Source returns newest-first, as the API does
		source := newMockLibrary()
		source.savedTracksFn = func(limit, offset int) (*services.SavedTrackPage, error) {
			return &services.SavedTrackPage{
				Items: []models.SavedTrack{
					{ID: "B", AddedAt: base.Add(3 * time.Hour)},
					{ID: "C", AddedAt: base.Add(2 * time.Hour)},
					{ID: "A", AddedAt: base.Add(1 * time.Hour)},
				},
				Total: 3,
			}, nil
		}

		dest := newMockLibrary()
		cache := &mockCache{}
		engine := NewTransferEngine(source, dest, cache, nil)

		progress := make(chan ProgressUpdate, 100)
		summary, err := engine.Run(context.Background(), progress, RunOpts{
			Fetch:    FetchOpts{MaxRetries: 1, RetryBackoff: time.Millisecond},
			Transfer: fastOpts(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if summary.Status != StatusCompleted {
			t.Errorf("expected completed, got %s", summary.Status)
		}

		want := []string{"A", "C", "B"}
		if len(dest.saved) != len(want) {
			t.Fatalf("expected %d insertions, got %d", len(want), len(dest.saved))
		}
		for i, id := range want {
			if dest.saved[i] != id {
				t.Errorf("insertion %d: expected %s, got %s", i, id, dest.saved[i])
			}
		}

		if len(cache.replaced) != 3 || cache.replaced[0].ID != "A" {
			t.Errorf("expected ordered library to be cached, got %+v", cache.replaced)
		}
	})

	t.Run("Cache Failure Does Not Disrupt Run", func(t *testing.T) {
		source := newMockLibrary()
		source.savedTracksFn = func(limit, offset int) (*services.SavedTrackPage, error) {
			return &services.SavedTrackPage{Items: tracksOfSize(2), Total: 2}, nil
		}

		dest := newMockLibrary()
		cache := &mockCache{err: context.DeadlineExceeded}
		engine := NewTransferEngine(source, dest, cache, nil)

		summary, err := engine.Run(context.Background(), nil, RunOpts{
			Fetch:    FetchOpts{MaxRetries: 1, RetryBackoff: time.Millisecond},
			Transfer: fastOpts(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summary.Status != StatusCompleted {
			t.Errorf("expected completed, got %s", summary.Status)
		}
	})

	t.Run("Missing Services", func(t *testing.T) {
		engine := NewTransferEngine(nil, newMockLibrary(), nil, nil)
		if _, err := engine.Run(context.Background(), nil, RunOpts{}); err == nil {
			t.Error("expected error for missing source")
		}

		engine = NewTransferEngine(newMockLibrary(), nil, nil, nil)
		if _, err := engine.Run(context.Background(), nil, RunOpts{}); err == nil {
			t.Error("expected error for missing destination")
		}
	})
}

func TestJobStatus(t *testing.T) {
	cases := []struct {
		status   JobStatus
		str      string
		terminal bool
	}{
		{StatusPending, "pending", false},
		{StatusRunning, "running", false},
		{StatusCompleted, "completed", true},
		{StatusCompletedWithErrors, "completed_with_errors", true},
		{StatusAborted, "aborted", true},
	}

	for _, tc := range cases {
		t.Run(tc.str, func(t *testing.T) {
			if tc.status.String() != tc.str {
				t.Errorf("expected %s, got %s", tc.str, tc.status.String())
			}
			if tc.status.Terminal() != tc.terminal {
				t.Errorf("expected terminal=%v for %s", tc.terminal, tc.str)
			}
		})
	}
}

func TestDelayStrategies(t *testing.T) {
	t.Run("NoDelay Honors Cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := (NoDelay{}).Wait(ctx); err == nil {
			t.Error("expected context error from cancelled NoDelay wait")
		}
	})

	t.Run("LimiterDelay Paces Waits", func(t *testing.T) {
		delay := NewLimiterDelay(5 * time.Millisecond)

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := delay.Wait(context.Background()); err != nil {
				t.Fatalf("unexpected wait error: %v", err)
			}
		}

		// First token is free; two more need two intervals.
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("expected pacing of at least 10ms, got %v", elapsed)
		}
	})
}
