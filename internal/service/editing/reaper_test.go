package editing

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestReaper_RejectsBadSchedule(t *testing.T) {
	r := NewReaper(newTestService(&fakeStore{}), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := r.Start("every now and then"); err == nil {
		r.Stop()
		t.Fatalf("Start accepted an invalid schedule")
	}
}

func TestReaper_SweepClosesIdleSessions(t *testing.T) {
	svc := newTestService(&fakeStore{})
	r := NewReaper(svc, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sess, _ := svc.Open("m1")
	sess.mu.Lock()
	sess.lastUsed = time.Now().Add(-time.Hour)
	sess.mu.Unlock()

	r.sweep()

	if _, err := svc.Get("m1", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after sweep = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestReaper_StartStop(t *testing.T) {
	r := NewReaper(newTestService(&fakeStore{}), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	r.Stop()
}
