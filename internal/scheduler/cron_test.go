package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/utils"
)

type stubSearcher struct {
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, category models.Category, opts controllers.SearchOptions) []models.Item {
	s.calls++
	year := 1995
	return []models.Item{{
		ID:         models.NewItemID(models.ProviderTMDB, category, "949"),
		ExternalID: "949",
		Category:   category,
		Provider:   models.ProviderTMDB,
		Name:       query,
		Year:       &year,
	}}
}

func TestRunRematchResolvesEverySession(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.PushInitialBackoff = time.Millisecond
	sessions := controllers.NewSessionManager(cfg, nil, nil, utils.NullLogger())
	defer sessions.Close()

	for _, device := range []string{"a", "b"} {
		session, err := sessions.Get(device, "")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := session.Store.ImportWatched(models.CategoryMovie, []models.WatchedEntry{{Title: "Heat"}}); err != nil {
			t.Fatal(err)
		}
	}

	searcher := &stubSearcher{}
	s := NewScheduler(cfg, sessions, controllers.NewWatchedMatcher(searcher, utils.NullLogger()), utils.NullLogger())
	s.RunRematch()

	if searcher.calls != 2 {
		t.Errorf("expected 2 searches, got %d", searcher.calls)
	}
	for _, session := range sessions.Sessions() {
		if pending := session.Store.PendingWatched(); len(pending) != 0 {
			t.Errorf("session %s still has pending entries", session.DeviceID)
		}
	}
}

func TestRunPullSkipsSignedOutSessions(t *testing.T) {
	cfg := config.Default(t.TempDir())
	sessions := controllers.NewSessionManager(cfg, nil, nil, utils.NullLogger())
	defer sessions.Close()

	if _, err := sessions.Get("a", ""); err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(cfg, sessions, controllers.NewWatchedMatcher(&stubSearcher{}, utils.NullLogger()), utils.NullLogger())
	s.RunPull()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.PullSchedule = "not a schedule"
	sessions := controllers.NewSessionManager(cfg, nil, nil, utils.NullLogger())
	defer sessions.Close()

	s := NewScheduler(cfg, sessions, controllers.NewWatchedMatcher(&stubSearcher{}, utils.NullLogger()), utils.NullLogger())
	if err := s.Start(); err == nil {
		s.Stop()
		t.Error("expected an error for an invalid schedule")
	}
}
