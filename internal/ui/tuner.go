// Package ui implements the keyboard-driven parameter tuner generators draw
// their settings with.
package ui

import (
	"fmt"
	"strconv"
)

// floatSteps is how many increments span a float slider's range.
const floatSteps = 20

type row struct {
	label string
	value string
	// slider is false for read-only text rows.
	slider bool
}

// Tuner is an immediate-mode widget list. Each frame the caller runs
// Begin, lets a generator declare its widgets, then calls End. Sliders are
// selected with Next and nudged with Step; the change is applied the next
// time the selected slider is declared.
type Tuner struct {
	rows     []row
	sliders  int
	selected int
	pending  int
	visible  bool
}

func New() *Tuner { return &Tuner{} }

// Begin starts a new frame of widget declarations.
func (t *Tuner) Begin() {
	t.rows = t.rows[:0]
	t.sliders = 0
}

// End closes the frame. Any step not consumed by a slider is dropped, and
// the selection wraps if the widget list shrank.
func (t *Tuner) End() {
	t.pending = 0
	if t.sliders == 0 {
		t.selected = 0
	} else if t.selected >= t.sliders {
		t.selected %= t.sliders
	}
}

// Next moves the selection to the following slider.
func (t *Tuner) Next() { t.selected++ }

// Step queues dir increments (positive or negative) for the selected slider.
func (t *Tuner) Step(dir int) { t.pending += dir }

func (t *Tuner) Selected() int { return t.selected }

// Visible reports whether the tuner should be printed; Toggle flips it.
func (t *Tuner) Visible() bool { return t.visible }
func (t *Tuner) Toggle()       { t.visible = !t.visible }

func (t *Tuner) Text(label, value string) {
	t.rows = append(t.rows, row{label: label, value: value})
}

func (t *Tuner) SliderInt(label string, v *int, lo, hi int) bool {
	changed := false
	if t.take() {
		nv := min(max(*v+t.pending, lo), hi)
		changed = nv != *v
		*v = nv
	}
	t.rows = append(t.rows, row{label: label, value: strconv.Itoa(*v), slider: true})
	return changed
}

func (t *Tuner) SliderFloat(label string, v *float64, lo, hi float64) bool {
	changed := false
	if t.take() {
		step := (hi - lo) / floatSteps
		nv := min(max(*v+float64(t.pending)*step, lo), hi)
		changed = nv != *v
		*v = nv
	}
	t.rows = append(t.rows, row{label: label, value: strconv.FormatFloat(*v, 'g', 4, 64), slider: true})
	return changed
}

// take reports whether the slider being declared is selected and has a
// pending step, and advances the slider count.
func (t *Tuner) take() bool {
	idx := t.sliders
	t.sliders++
	return idx == t.selected && t.pending != 0
}

// Lines renders the last frame's widgets, marking the selected slider.
func (t *Tuner) Lines() []string {
	lines := make([]string, 0, len(t.rows))
	slider := 0
	for _, r := range t.rows {
		mark := "  "
		if r.slider {
			if slider == t.selected {
				mark = "> "
			}
			slider++
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", mark, r.label, r.value))
	}
	return lines
}
