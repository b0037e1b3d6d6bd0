package profiling

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler is a lightweight per-frame CPU profiler. A nil *Profiler is valid
// and records nothing.
type Profiler struct {
	mu          sync.Mutex
	frameTotals map[string]time.Duration
	frameCounts map[string]int
}

// New returns an empty profiler.
func New() *Profiler {
	return &Profiler{
		frameTotals: make(map[string]time.Duration),
		frameCounts: make(map[string]int),
	}
}

func nop() {}

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer prof.Track("subsystem.Operation")()
func (p *Profiler) Track(name string) func() {
	if p == nil {
		return nop
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.frameTotals[name] += d
		p.frameCounts[name]++
		p.mu.Unlock()
	}
}

// ResetFrame clears current per-frame totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	clear(p.frameTotals)
	clear(p.frameCounts)
	p.mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.frameTotals))
	for k, v := range p.frameTotals {
		out[k] = v
	}
	return out
}

// Count returns how many times name was tracked this frame.
func (p *Profiler) Count(name string) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameCounts[name]
}

// SumWithPrefix adds up every total whose name starts with prefix.
func (p *Profiler) SumWithPrefix(prefix string) time.Duration {
	var sum time.Duration
	for k, v := range p.Snapshot() {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

// TopN formats top N durations from the current frame totals.
// Example: "culling.Cull:4.2ms, world.ProcessCompleted:2.1ms"
func (p *Profiler) TopN(n int) string {
	ss := p.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	return trimTrailingZerosF(ms) + "ms"
}

// trimTrailingZerosF keeps one decimal place and drops ".0".
func trimTrailingZerosF(f float64) string {
	whole := int64(f)
	frac := int64((f-float64(whole))*10.0 + 0.0001)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	buf := make([]byte, 0, 20)
	for i > 0 {
		buf = append(buf, byte('0'+i%10))
		i /= 10
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
