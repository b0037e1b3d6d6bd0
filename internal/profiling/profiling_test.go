package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulatesPerName(t *testing.T) {
	p := New()
	for range 3 {
		p.Track("world.Update")()
	}
	p.Track("culling.Cull")()

	if got := p.Count("world.Update"); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	snap := p.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d entries, want 2", len(snap))
	}

	p.ResetFrame()
	if len(p.Snapshot()) != 0 || p.Count("world.Update") != 0 {
		t.Fatal("ResetFrame did not clear totals")
	}
}

func TestTopNOrdersByDuration(t *testing.T) {
	p := New()
	p.frameTotals["a"] = 1 * time.Millisecond
	p.frameTotals["b"] = 5 * time.Millisecond
	p.frameTotals["c"] = 2500 * time.Microsecond

	got := p.TopN(2)
	if got != "b:5ms, c:2.5ms" {
		t.Fatalf("TopN(2) = %q", got)
	}
	if all := p.TopN(10); strings.Count(all, ",") != 2 {
		t.Fatalf("TopN(10) = %q", all)
	}
}

func TestSumWithPrefix(t *testing.T) {
	p := New()
	p.frameTotals["world.Update"] = 2 * time.Millisecond
	p.frameTotals["world.ProcessCompleted"] = 3 * time.Millisecond
	p.frameTotals["culling.Cull"] = 7 * time.Millisecond
	if got := p.SumWithPrefix("world."); got != 5*time.Millisecond {
		t.Fatalf("SumWithPrefix = %v", got)
	}
}

func TestNilProfilerIsNoop(t *testing.T) {
	var p *Profiler
	p.Track("x")()
	p.ResetFrame()
	if p.Snapshot() != nil || p.TopN(3) != "" || p.Count("x") != 0 {
		t.Fatal("nil profiler recorded something")
	}
}
