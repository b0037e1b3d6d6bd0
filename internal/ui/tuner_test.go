package ui

import (
	"strings"
	"testing"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/world"
)

var _ world.DebugUI = (*Tuner)(nil)

type params struct {
	height int
	scale  float64
}

func (p *params) draw(t *Tuner) bool {
	t.Begin()
	defer t.End()
	t.Text("seed", "7")
	changed := t.SliderInt("height", &p.height, 0, 10)
	changed = t.SliderFloat("scale", &p.scale, 0, 2) || changed
	return changed
}

func TestNoInputNoChange(t *testing.T) {
	tu := New()
	p := params{height: 5, scale: 1}
	if p.draw(tu) {
		t.Fatal("widgets reported a change without input")
	}
}

func TestStepAppliesToSelected(t *testing.T) {
	tu := New()
	p := params{height: 5, scale: 1}

	tu.Step(2)
	if !p.draw(tu) || p.height != 7 || p.scale != 1 {
		t.Fatalf("after step: %+v", p)
	}
	if p.draw(tu) {
		t.Fatal("step applied twice")
	}

	tu.Next()
	tu.Step(-1)
	if !p.draw(tu) || p.height != 7 || p.scale != 0.9 {
		t.Fatalf("after float step: %+v", p)
	}
}

func TestStepClamps(t *testing.T) {
	tu := New()
	p := params{height: 9, scale: 1}
	tu.Step(5)
	if !p.draw(tu) || p.height != 10 {
		t.Fatalf("height = %d, want 10", p.height)
	}
	tu.Step(1)
	if p.draw(tu) {
		t.Fatal("step at the limit reported a change")
	}
}

func TestSelectionWraps(t *testing.T) {
	tu := New()
	p := params{height: 5, scale: 1}
	p.draw(tu)
	tu.Next()
	tu.Next()
	p.draw(tu)
	if tu.Selected() != 0 {
		t.Fatalf("selected = %d, want wrap to 0", tu.Selected())
	}
}

func TestLinesMarkSelection(t *testing.T) {
	tu := New()
	p := params{height: 5, scale: 1}
	tu.Next()
	p.draw(tu)
	lines := tu.Lines()
	want := []string{"  seed: 7", "  height: 5", "> scale: 1"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

func TestTunesGenerator(t *testing.T) {
	tu := New()
	gen := world.NewFlat(20)

	tu.Begin()
	if gen.Tune(tu) != nil {
		t.Fatal("untouched generator returned a replacement")
	}
	tu.End()

	tu.Step(3)
	tu.Begin()
	next := gen.Tune(tu)
	tu.End()
	if next == nil || next.Height(0, 0) != 23 {
		t.Fatalf("tuned generator = %v", next)
	}
}
