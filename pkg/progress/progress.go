// Package progress reports the processing state of a batch of views. A
// Printer keeps one Status per view behind a mutex and periodically prints
// how many views are finished from a background goroutine.
package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// Status is the processing state of a single view.
type Status int

const (
	Ignored Status = iota
	Queued
	InProgress
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Ignored:
		return "ignored"
	case Queued:
		return "queued"
	case InProgress:
		return "in progress"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// finished reports whether s counts towards the completed total.
func (s Status) finished() bool {
	return s == Ignored || s == Done || s == Failed
}

// DefaultInterval is the delay between two prints of a running Printer.
const DefaultInterval = 2 * time.Second

// Printer tracks per-view status and prints a summary line whenever the
// number of completed views changed.
type Printer struct {
	mu            sync.Mutex
	statuses      []Status
	lastCompleted int
	out           *termenv.Output

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewPrinter creates a Printer for numViews views, all Queued, writing to w.
func NewPrinter(w io.Writer, numViews int) *Printer {
	statuses := make([]Status, numViews)
	for i := range statuses {
		statuses[i] = Queued
	}
	return &Printer{
		statuses:      statuses,
		lastCompleted: -1,
		out:           termenv.NewOutput(w),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// SetStatus records the status of view. Out of range views are ignored.
func (p *Printer) SetStatus(view int, s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view < 0 || view >= len(p.statuses) {
		return
	}
	p.statuses[view] = s
}

// Status returns the recorded status of view.
func (p *Printer) Status(view int) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view < 0 || view >= len(p.statuses) {
		return Ignored
	}
	return p.statuses[view]
}

// Counts returns the number of finished views (ignored, done or failed)
// and the number still queued or in progress.
func (p *Printer) Counts() (completed, queued int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.countsLocked()
}

func (p *Printer) countsLocked() (completed, queued int) {
	for _, s := range p.statuses {
		if s.finished() {
			completed++
		} else {
			queued++
		}
	}
	return completed, queued
}

// Failures returns the number of views marked Failed.
func (p *Printer) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failuresLocked()
}

func (p *Printer) failuresLocked() int {
	n := 0
	for _, s := range p.statuses {
		if s == Failed {
			n++
		}
	}
	return n
}

// Print writes "<completed> of <total> completed (<pct>%)" if the completed
// count changed since the previous call. It reports whether it printed.
func (p *Printer) Print() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	completed, queued := p.countsLocked()
	if completed == p.lastCompleted {
		return false
	}
	p.lastCompleted = completed

	total := completed + queued
	pct := 100.0
	if total > 0 {
		pct = 100 * float64(completed) / float64(total)
	}

	counter := p.out.String(fmt.Sprintf("%d of %d", completed, total)).Bold()
	fmt.Fprintf(p.out, "%s completed (%.2f%%)", counter, pct)

	if failed := p.failuresLocked(); failed > 0 {
		warn := p.out.String(fmt.Sprintf("%d failed", failed)).Foreground(p.out.Color("1"))
		fmt.Fprintf(p.out, ", %s", warn)
	}
	fmt.Fprintln(p.out)
	return true
}

// Start launches the background goroutine printing every interval until
// ctx is cancelled or Stop is called. A non-positive interval selects
// DefaultInterval. Start must be called at most once.
func (p *Printer) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	go p.run(ctx, interval)
}

func (p *Printer) run(ctx context.Context, interval time.Duration) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.Print()
		}
	}
}

// Stop terminates the background goroutine started by Start, waits for it
// and prints a final summary if anything changed.
func (p *Printer) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if started {
		p.stopOnce.Do(func() {
			close(p.stop)
		})
		<-p.done
	}
	p.Print()
}
