// Package monitor watches a staging directory for newly scanned PDFs.
package monitor

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scandex/internal/events"
)

// DefaultPollInterval is how often the staging directory is scanned when no
// interval is configured.
const DefaultPollInterval = 2 * time.Second

// DetectedFile is the payload published with events.MonitorFileDetected.
type DetectedFile struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Detected time.Time `json:"detected"`
}

type fileState struct {
	size     int64
	stable   bool
	reported bool
}

// Monitor polls a directory for new PDF files. A file is reported only after
// its size is unchanged between two consecutive polls, so half-written
// scanner output is never picked up.
type Monitor struct {
	dir      string
	interval time.Duration
	bus      *events.Bus

	mu      sync.Mutex
	seen    map[string]*fileState
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a monitor for dir. A non-positive interval falls back to
// DefaultPollInterval.
func New(dir string, interval time.Duration, bus *events.Bus) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		dir:      dir,
		interval: interval,
		bus:      bus,
		seen:     make(map[string]*fileState),
	}
}

// Start begins polling in a background goroutine. Files already present are
// recorded but not reported, matching what an operator expects when pointing
// the monitor at a directory with history in it. Starting a running monitor
// is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	m.primeExisting()

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.loop(ctx)
	log.Printf("Monitor.Start: watching %s every %s", m.dir, m.interval)
}

// Stop halts polling and waits for the poll loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.mu.Unlock()

	cancel()
	<-done
	log.Printf("Monitor.Stop: stopped watching %s", m.dir)
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Poll scans the directory once. It is exported so callers can force a scan
// without waiting for the next tick.
func (m *Monitor) Poll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scan(true)
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// primeExisting marks current directory contents as already reported.
// Callers must hold mu.
func (m *Monitor) primeExisting() {
	m.seen = make(map[string]*fileState)
	m.scan(false)
	for _, st := range m.seen {
		st.stable = true
		st.reported = true
	}
}

// scan walks the directory once. When report is true, files that became
// stable since the last scan are published. Callers must hold mu.
func (m *Monitor) scan(report bool) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		log.Printf("Monitor.scan: reading %s: %v", m.dir, err)
		return
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		present[path] = true

		info, err := e.Info()
		if err != nil {
			continue
		}

		st, ok := m.seen[path]
		if !ok {
			m.seen[path] = &fileState{size: info.Size()}
			continue
		}
		if st.reported {
			continue
		}
		if info.Size() != st.size {
			st.size = info.Size()
			st.stable = false
			continue
		}
		st.stable = true
		if report {
			st.reported = true
			m.bus.Publish(events.MonitorFileDetected, DetectedFile{
				Path:     path,
				Size:     info.Size(),
				Detected: time.Now(),
			})
		}
	}

	for path := range m.seen {
		if !present[path] {
			delete(m.seen, path)
		}
	}
}
