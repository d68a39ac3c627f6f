// Package scheduler fires one draft generation per channel at its configured time.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NataTusia/Haah-and-Cash/config"
	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/orchestrator"
)

// Generator is the part of the orchestrator the scheduler drives.
type Generator interface {
	Generate(ctx context.Context, channel models.Channel, day int, trigger orchestrator.Trigger) error
}

// Run is the next firing of a channel.
type Run struct {
	Channel models.Channel
	At      time.Time
}

type Scheduler struct {
	cron    *cron.Cron
	gen     Generator
	loc     *time.Location
	entries map[models.Channel]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// New registers one job per channel. Specs use the standard five-field cron format.
func New(gen Generator, cfg config.ScheduleConfig, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		gen:     gen,
		loc:     loc,
		entries: make(map[models.Channel]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}

	specs := map[models.Channel]string{
		models.PrimaryMorning: cfg.Morning,
		models.PrimaryMidday:  cfg.Midday,
		models.PrimaryEvening: cfg.Evening,
		models.Secondary:      cfg.Secondary,
	}
	for _, ch := range models.Channels {
		spec := specs[ch]
		if spec == "" {
			continue
		}
		id, err := s.cron.AddFunc(spec, s.job(ch))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", ch, spec, err)
		}
		s.entries[ch] = id
	}
	return s, nil
}

func (s *Scheduler) job(ch models.Channel) func() {
	return func() {
		logger.InfoWithFields("scheduled generation", logger.Fields{"channel": ch.String()})
		if err := s.gen.Generate(s.ctx, ch, 0, orchestrator.Scheduled); err != nil {
			logger.ErrorWithFields("scheduled generation failed", logger.Fields{"channel": ch.String(), "error": err.Error()})
		}
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Log.Warn("scheduler stop timed out")
	}
}

// NextRuns lists the next firing of every scheduled channel after now, earliest first.
func (s *Scheduler) NextRuns(now time.Time) []Run {
	now = now.In(s.loc)
	runs := make([]Run, 0, len(s.entries))
	for ch, id := range s.entries {
		e := s.cron.Entry(id)
		if !e.Valid() {
			continue
		}
		runs = append(runs, Run{Channel: ch, At: e.Schedule.Next(now)})
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].At.Equal(runs[j].At) {
			return runs[i].Channel < runs[j].Channel
		}
		return runs[i].At.Before(runs[j].At)
	})
	return runs
}

// cronLogger routes cron's own messages through the process logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.DebugWithFields("cron: "+msg, kv(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	f := kv(keysAndValues)
	f["error"] = fmt.Sprint(err)
	logger.ErrorWithFields("cron: "+msg, f)
}

func kv(keysAndValues []interface{}) logger.Fields {
	f := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
