package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 40

// Bar is a terminal progress bar for song fetches. The total can grow while
// the bar runs, since each artist's catalog size is known only once resolved.
type Bar struct {
	out       io.Writer
	label     string
	total     int
	current   int
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar writing to stderr.
func New(label string, total int) *Bar {
	return &Bar{
		out:       os.Stderr,
		label:     label,
		total:     total,
		startTime: time.Now(),
		lastPrint: time.Now(),
	}
}

// SetOutput redirects rendering.
func (b *Bar) SetOutput(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = w
}

// AddTotal grows the expected count by n.
func (b *Bar) AddTotal(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total += n
	b.render()
}

// Increment increases the progress counter
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++

	// Update display every 500ms or when complete
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Current returns the number of completed fetches.
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Finish renders the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		if b.current > b.total {
			b.total = b.current
		}
		b.render()
		fmt.Fprintln(b.out)
		b.done = true
	}
}

func (b *Bar) render() {
	if b.done || b.total <= 0 {
		return
	}

	current := min(b.current, b.total)
	percentage := float64(current) / float64(b.total) * 100
	elapsed := time.Since(b.startTime)

	var eta time.Duration
	if current > 0 {
		avgTime := elapsed / time.Duration(current)
		eta = avgTime * time.Duration(b.total-current)
	}

	filled := barWidth * current / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.1f%%) - Elapsed: %s - ETA: %s   ",
		b.label,
		bar,
		current,
		b.total,
		percentage,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
