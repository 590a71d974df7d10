package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var ErrUnknownTask = errors.New("unknown task")

// TaskFn is a scheduled unit of work. The context is cancelled when the
// scheduler stops.
type TaskFn func(ctx context.Context) error

// Trigger computes the next run time after now.
type Trigger interface {
	Next(now time.Time) time.Time
	String() string
}

// Every fires at a fixed interval.
type Every time.Duration

func (e Every) Next(now time.Time) time.Time { return now.Add(time.Duration(e)) }
func (e Every) String() string               { return "every " + time.Duration(e).String() }

// AtHours fires at minute zero of each listed hour of the day, in the
// scheduler's location.
type AtHours []int

func (h AtHours) Next(now time.Time) time.Time {
	if len(h) == 0 {
		return time.Time{}
	}
	base := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	for i := 1; i <= 24; i++ {
		candidate := base.Add(time.Duration(i) * time.Hour)
		for _, hour := range h {
			if candidate.Hour() == hour {
				return candidate
			}
		}
	}
	return time.Time{}
}

func (h AtHours) String() string { return fmt.Sprintf("at hours %v", []int(h)) }

// TaskInfo is a snapshot of a registered task.
type TaskInfo struct {
	Name      string    `json:"name"`
	Trigger   string    `json:"trigger"`
	NextRun   time.Time `json:"nextRun"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Runs      int64     `json:"runs"`
}

type task struct {
	name    string
	trigger Trigger
	fn      TaskFn
	stopCh  chan struct{}

	mu      sync.Mutex
	nextRun time.Time
	lastRun time.Time
	lastErr error
	runs    int64
}

// Scheduler runs named tasks on triggers. A panicking or failing task is
// logged and runs again on its next trigger.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	loc    *time.Location
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*task),
		loc:    loc,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name. A task with the same name is replaced.
func (s *Scheduler) Add(name string, trigger Trigger, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[name]; ok {
		close(old.stopCh)
		delete(s.tasks, name)
	}

	t := &task{name: name, trigger: trigger, fn: fn, stopCh: make(chan struct{})}
	s.tasks[name] = t

	s.wg.Add(1)
	go s.loop(t)
	slog.Info("scheduler task registered", "task", name, "trigger", trigger.String())
}

// AddTicker registers fn to run every interval.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.Add(name, Every(interval), fn)
}

func (s *Scheduler) loop(t *task) {
	defer s.wg.Done()
	for {
		next := t.trigger.Next(s.now().In(s.loc))
		if next.IsZero() {
			return
		}
		t.mu.Lock()
		t.nextRun = next
		t.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.execute(t)
		case <-t.stopCh:
			timer.Stop()
			return
		case <-s.ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) execute(t *task) (err error) {
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
		t.mu.Lock()
		t.lastRun = start
		t.lastErr = err
		t.runs++
		t.mu.Unlock()

		if err != nil {
			slog.Error("scheduler task failed", "task", t.name, "error", err)
			return
		}
		slog.Info("scheduler task completed", "task", t.name, "latency_ms", float64(time.Since(start).Milliseconds()))
	}()
	return t.fn(s.ctx)
}

// RunNow executes a registered task synchronously, outside its trigger.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.execute(t)
}

// Remove stops and removes a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		close(t.stopCh)
		delete(s.tasks, name)
	}
}

// Stop cancels running tasks and waits for the task loops to exit. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Tasks returns the registered tasks sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	list := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		list = append(list, t)
	}
	s.mu.Unlock()

	infos := make([]TaskInfo, 0, len(list))
	for _, t := range list {
		t.mu.Lock()
		info := TaskInfo{
			Name:    t.name,
			Trigger: t.trigger.String(),
			NextRun: t.nextRun,
			LastRun: t.lastRun,
			Runs:    t.runs,
		}
		if t.lastErr != nil {
			info.LastError = t.lastErr.Error()
		}
		t.mu.Unlock()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
