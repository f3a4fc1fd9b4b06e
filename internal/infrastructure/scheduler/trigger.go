package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one trigger rule. A zero At means "every interval"; otherwise the
// job runs once a day at At (hours and minutes after midnight).
type Entry struct {
	Type   JobType
	Target string
	At     time.Duration
	daily  bool
}

// Daily reports whether the entry runs at a fixed time of day
func (e Entry) Daily() bool {
	return e.daily
}

// ParseEntry parses "type", "type:target", "type@HH:MM" or "type:target@HH:MM"
func ParseEntry(s string) (Entry, error) {
	var e Entry
	rule, at, hasAt := strings.Cut(strings.TrimSpace(s), "@")
	name, target, _ := strings.Cut(rule, ":")

	t, err := ParseJobType(name)
	if err != nil {
		return e, err
	}
	e.Type, e.Target = t, target
	if !hasAt {
		return e, nil
	}

	hh, mm, ok := strings.Cut(at, ":")
	h, herr := strconv.Atoi(hh)
	m, merr := strconv.Atoi(mm)
	if !ok || herr != nil || merr != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return e, fmt.Errorf("%w: bad time of day %q in %q", ErrInvalidConfig, at, s)
	}
	e.At = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	e.daily = true
	return e, nil
}

// ParseEntries parses every configured rule
func ParseEntries(specs []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		e, err := ParseEntry(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Submitter is the part of the Scheduler a trigger needs
type Submitter interface {
	Submit(t JobType, target string) (*Job, error)
}

// Trigger submits interval entries on every tick and daily entries once
// their time of day has passed.
type Trigger struct {
	interval time.Duration
	entries  []Entry
	sched    Submitter
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun map[int]string // entry index -> date of the last daily run
}

// NewTrigger creates a trigger. Daily entries are checked every minute at most.
func NewTrigger(interval time.Duration, entries []Entry, sched Submitter, loc *time.Location, logger *zap.Logger) (*Trigger, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: trigger interval must be positive", ErrInvalidConfig)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Trigger{
		interval: interval,
		entries:  entries,
		sched:    sched,
		logger:   logger.Named("trigger"),
		loc:      loc,
		now:      time.Now,
		lastRun:  make(map[int]string),
	}, nil
}

// Start begins ticking
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go t.loop(ctx)
	t.logger.Info("Trigger started", zap.Duration("interval", t.interval), zap.Int("entries", len(t.entries)))
}

// Stop ends the loop
func (t *Trigger) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
		t.wg.Wait()
	}
}

func (t *Trigger) loop(ctx context.Context) {
	defer t.wg.Done()

	check := t.interval
	if t.hasDaily() && check > time.Minute {
		check = time.Minute
	}
	ticker := time.NewTicker(check)
	defer ticker.Stop()
	nextInterval := t.now().Add(t.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := t.now()
			if !now.Before(nextInterval) {
				t.Fire(false)
				nextInterval = now.Add(t.interval)
			}
			t.fireDaily(now)
		}
	}
}

func (t *Trigger) hasDaily() bool {
	for _, e := range t.entries {
		if e.daily {
			return true
		}
	}
	return false
}

// Fire submits every interval entry now, plus daily entries when all is set.
// Jobs that are still queued or running are skipped.
func (t *Trigger) Fire(all bool) int {
	submitted := 0
	for _, e := range t.entries {
		if e.daily && !all {
			continue
		}
		if t.submit(e) {
			submitted++
		}
	}
	return submitted
}

func (t *Trigger) fireDaily(now time.Time) {
	local := now.In(t.loc)
	today := local.Format(time.DateOnly)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, t.loc)

	for i, e := range t.entries {
		if !e.daily || local.Before(midnight.Add(e.At)) {
			continue
		}
		t.mu.Lock()
		done := t.lastRun[i] == today
		if !done {
			t.lastRun[i] = today
		}
		t.mu.Unlock()
		if !done {
			t.submit(e)
		}
	}
}

func (t *Trigger) submit(e Entry) bool {
	job, err := t.sched.Submit(e.Type, e.Target)
	switch {
	case err == nil:
		t.logger.Debug("Job triggered", zap.String("job", job.Name()))
		return true
	case errors.Is(err, ErrJobInProgress):
		t.logger.Debug("Job still busy, skipping", zap.String("type", string(e.Type)), zap.String("target", e.Target))
	default:
		t.logger.Warn("Failed to trigger job", zap.String("type", string(e.Type)), zap.Error(err))
	}
	return false
}
