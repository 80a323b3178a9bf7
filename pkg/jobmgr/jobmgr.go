// Package jobmgr runs named background jobs under a shared parent context and
// tracks which of them are still running.
//
//	jm := jobmgr.NewManager(ctx, nil)
//	_ = jm.Start("sweeper", func(ctx context.Context) error {
//	    // work until ctx is cancelled
//	    return nil
//	})
//	jm.Wait()
//
// Jobs are removed automatically when they return.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	ErrRunning    = errors.New("jobmgr: job is already running")
	ErrNotRunning = errors.New("jobmgr: job is not running")
)

// Status is a job lifecycle transition.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Reporter receives lifecycle transitions. err is set for StatusError.
type Reporter func(name string, status Status, err error)

// LogReporter logs transitions through logrus.
func LogReporter(name string, status Status, err error) {
	entry := log.WithField("job", name)
	switch status {
	case StatusError:
		entry.Errorf("[Jobs] %s failed: %v", name, err)
	case StatusRunning:
		entry.Debugf("[Jobs] %s started", name)
	default:
		entry.Debugf("[Jobs] %s finished", name)
	}
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is safe for concurrent use.
type Manager struct {
	ctx      context.Context
	reporter Reporter

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager returns a manager whose jobs stop when ctx is done. A nil
// reporter logs through LogReporter.
func NewManager(ctx context.Context, reporter Reporter) *Manager {
	if reporter == nil {
		reporter = LogReporter
	}
	return &Manager{ctx: ctx, reporter: reporter, jobs: make(map[string]*job)}
}

// Start runs fn in its own goroutine. Names are unique among running jobs.
func (m *Manager) Start(name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrRunning)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.reporter(name, StatusRunning, nil)
		if err := fn(ctx); err != nil {
			m.reporter(name, StatusError, err)
		} else {
			m.reporter(name, StatusDone, nil)
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotRunning)
	}
	j.cancel()
	<-j.done
	return nil
}

// List returns the running job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Status summarises the running jobs, e.g. "Running jobs: status, sweeper".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}
