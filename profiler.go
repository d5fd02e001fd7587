package pick

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler times the named stages of pick queries. It keeps the last
// duration of each stage and a running total for the mean, plus counters.
// It is not safe for concurrent use; the Picker guards it with its lock.
type Profiler struct {
	Last   map[string]time.Duration
	Total  map[string]time.Duration
	Runs   map[string]int
	Counts map[string]int
	Order  []string

	started map[string]time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Last:    make(map[string]time.Duration),
		Total:   make(map[string]time.Duration),
		Runs:    make(map[string]int),
		Counts:  make(map[string]int),
		started: make(map[string]time.Time),
	}
}

func (p *Profiler) BeginScope(name string) {
	if _, seen := p.Runs[name]; !seen {
		p.Order = append(p.Order, name)
		p.Runs[name] = 0
	}
	p.started[name] = time.Now()
}

func (p *Profiler) EndScope(name string) {
	start, ok := p.started[name]
	if !ok {
		return
	}
	delete(p.started, name)
	d := time.Since(start)
	p.Last[name] = d
	p.Total[name] += d
	p.Runs[name]++
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Mean is the average duration of a stage over every completed run.
func (p *Profiler) Mean(name string) time.Duration {
	n := p.Runs[name]
	if n == 0 {
		return 0
	}
	return p.Total[name] / time.Duration(n)
}

// Reset forgets durations and counters but keeps the stage order.
func (p *Profiler) Reset() {
	for _, name := range p.Order {
		p.Last[name] = 0
		p.Total[name] = 0
		p.Runs[name] = 0
	}
	clear(p.Counts)
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

// Summary is a single line for per-query DEBUG logs.
func (p *Profiler) Summary() string {
	parts := make([]string, 0, len(p.Order))
	for _, name := range p.Order {
		parts = append(parts, fmt.Sprintf("%s=%.3fms", name, ms(p.Last[name])))
	}
	return strings.Join(parts, " ")
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Pick stages (last / mean / runs):\n")
	for _, name := range p.Order {
		sb.WriteString(fmt.Sprintf("  %-10s: %.2f ms / %.2f ms / %d\n", name, ms(p.Last[name]), ms(p.Mean(name)), p.Runs[name]))
	}

	if len(p.Counts) > 0 {
		sb.WriteString("\nStats:\n")
		keys := make([]string, 0, len(p.Counts))
		for k := range p.Counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %-10s: %d\n", k, p.Counts[k]))
		}
	}
	return sb.String()
}
