package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress prints a single updating status line while a run collects.
// It satisfies the page observer of the collector and the row observer
// of the harvest service.
type Progress struct {
	mu sync.Mutex
	w  io.Writer

	operation string
	pages     int
	records   int
	ids       int
	failed    int
	rows      int
	startTime time.Time
	quiet     bool
}

// NewProgress creates a progress line for operation. A quiet Progress only
// counts.
func NewProgress(w io.Writer, operation string, quiet bool) *Progress {
	return &Progress{
		w:         w,
		operation: operation,
		startTime: time.Now(),
		quiet:     quiet,
	}
}

func (p *Progress) ObservePage(edge string, records int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages++
	p.records += records
	p.print()
}

func (p *Progress) ObserveStop(operation string, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ids++
	if reason == "failed" {
		p.failed++
	}
	p.print()
}

func (p *Progress) ObserveRows(operation string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rows += n
}

// Finish ends the status line and prints a summary
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, "\n%s %d rows from %d ids in %s",
		Green("[DONE]"), p.rows, p.ids, time.Since(p.startTime).Round(time.Second))
	if p.failed > 0 {
		fmt.Fprintf(p.w, " %s", Red(fmt.Sprintf("(%d failed)", p.failed)))
	}
	fmt.Fprintln(p.w)
}

// Counts returns ids finished, ids failed, pages and records seen
func (p *Progress) Counts() (ids, failed, pages, records int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ids, p.failed, p.pages, p.records
}

func (p *Progress) print() {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, "\r%s ids: %d | pages: %d | records: %d",
		Magenta("["+p.operation+"]"), p.ids, p.pages, p.records)
	if p.failed > 0 {
		fmt.Fprintf(p.w, " | %s", Red(fmt.Sprintf("failed: %d", p.failed)))
	}
}
