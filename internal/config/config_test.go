package config

import "testing"

func TestRenderDistanceClamp(t *testing.T) {
	s := Default()
	s.SetRenderDistance(0)
	if got := s.RenderDistance(); got != MinRenderDistance {
		t.Errorf("low clamp = %d", got)
	}
	s.SetRenderDistance(1000)
	if got := s.RenderDistance(); got != MaxRenderDistance {
		t.Errorf("high clamp = %d", got)
	}
	s.SetRenderDistance(10)
	if s.EvictDistance() <= s.RenderDistance() {
		t.Errorf("evict distance %d not beyond render distance %d", s.EvictDistance(), s.RenderDistance())
	}
}

func TestSettersKeepMinimums(t *testing.T) {
	s := Default()
	s.SetWorkers(-3)
	s.SetHeapBytes(10)
	s.SetRingSegmentBytes(10)
	s.SetMaxObjects(0)
	s.SetMaxSubmissions(0)
	if s.Workers() != 1 || s.HeapBytes() != 1<<20 || s.RingSegmentBytes() != 64<<10 || s.MaxObjects() != 1 || s.MaxSubmissions() != 1 {
		t.Fatalf("minimums not enforced: workers=%d heap=%d ring=%d objects=%d submissions=%d",
			s.Workers(), s.HeapBytes(), s.RingSegmentBytes(), s.MaxObjects(), s.MaxSubmissions())
	}
}

func TestUnknownGeneratorFallsBack(t *testing.T) {
	s := Default()
	s.SetGenerator(GeneratorDensity)
	if s.Generator() != GeneratorDensity {
		t.Fatalf("generator = %q", s.Generator())
	}
	s.SetGenerator("caves-of-doom")
	if s.Generator() != GeneratorHeightmap {
		t.Fatalf("unknown kind kept: %q", s.Generator())
	}
}

func TestFPSLimit(t *testing.T) {
	s := Default()
	if s.FPSLimit() != 0 {
		t.Fatalf("default fps limit = %d, want uncapped", s.FPSLimit())
	}
	s.SetFPSLimit(144)
	if s.FPSLimit() != 144 {
		t.Fatalf("fps limit = %d", s.FPSLimit())
	}
	s.SetFPSLimit(-1)
	if s.FPSLimit() != 0 {
		t.Fatalf("negative fps limit stored as %d", s.FPSLimit())
	}
}
