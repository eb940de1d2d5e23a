package editing

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Reaper periodically closes idle editing sessions.
type Reaper struct {
	cron *cron.Cron
	svc  *Service
	ttl  time.Duration
	log  *slog.Logger
}

func NewReaper(svc *Service, ttl time.Duration, log *slog.Logger) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		cron: cron.New(),
		svc:  svc,
		ttl:  ttl,
		log:  log.With("component", "editing.reaper"),
	}
}

// Start schedules the sweep. schedule is a cron expression such as "@every 5m".
func (r *Reaper) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("session reaper started", "schedule", schedule, "ttl", r.ttl.String())
	return nil
}

func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("session reaper stopped")
}

func (r *Reaper) sweep() {
	if n := r.svc.Reap(time.Now(), r.ttl); n > 0 {
		r.log.Info("idle sessions closed", "count", n)
	}
}
