package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestKeyEdges(t *testing.T) {
	m := NewManager()

	m.HandleKey(glfw.KeyO, glfw.Press)
	if !m.IsActive(ActionToggleOcclusion) || !m.JustPressed(ActionToggleOcclusion) {
		t.Fatal("press not registered")
	}
	m.PostUpdate()
	if m.JustPressed(ActionToggleOcclusion) {
		t.Fatal("JustPressed survived PostUpdate")
	}

	m.HandleKey(glfw.KeyO, glfw.Repeat)
	if m.JustPressed(ActionToggleOcclusion) {
		t.Fatal("key repeat counted as a new press")
	}

	m.HandleKey(glfw.KeyO, glfw.Release)
	if m.IsActive(ActionToggleOcclusion) || !m.JustReleased(ActionToggleOcclusion) {
		t.Fatal("release not registered")
	}
}

func TestPressAndReleaseWithinFrame(t *testing.T) {
	m := NewManager()
	m.HandleKey(glfw.KeyV, glfw.Press)
	m.HandleKey(glfw.KeyV, glfw.Release)
	if !m.JustPressed(ActionLogStats) {
		t.Fatal("tap lost before PostUpdate")
	}
	if m.IsActive(ActionLogStats) {
		t.Fatal("key still held after release")
	}
}

func TestAlternateBindings(t *testing.T) {
	m := NewManager()
	m.HandleKey(glfw.KeyUp, glfw.Press)
	if !m.IsActive(ActionMoveForward) {
		t.Fatal("arrow key not bound to forward")
	}
	m.HandleKey(glfw.KeyS, glfw.Press)
	if got := m.Axis(ActionMoveForward, ActionMoveBackward); got != 0 {
		t.Fatalf("opposing keys give axis %v, want 0", got)
	}
	m.HandleKey(glfw.KeyUp, glfw.Release)
	if got := m.Axis(ActionMoveForward, ActionMoveBackward); got != -1 {
		t.Fatalf("axis = %v, want -1", got)
	}
}

func TestUnbindKey(t *testing.T) {
	m := NewManager()
	m.UnbindKey(glfw.KeyEscape)
	m.HandleKey(glfw.KeyEscape, glfw.Press)
	if m.IsActive(ActionQuit) {
		t.Fatal("unbound key still drives its action")
	}
	m.BindKey(glfw.KeyQ, ActionQuit)
	m.HandleKey(glfw.KeyQ, glfw.Press)
	if !m.IsActive(ActionQuit) {
		t.Fatal("rebinding failed")
	}
}

func TestCursorDelta(t *testing.T) {
	m := NewManager()
	m.HandleCursor(100, 100)
	if dx, dy := m.CursorDelta(); dx != 0 || dy != 0 {
		t.Fatalf("first sample produced delta (%v, %v)", dx, dy)
	}
	m.HandleCursor(110, 95)
	m.HandleCursor(115, 90)
	if dx, dy := m.CursorDelta(); dx != 15 || dy != -10 {
		t.Fatalf("delta = (%v, %v), want (15, -10)", dx, dy)
	}
	m.PostUpdate()
	if dx, dy := m.CursorDelta(); dx != 0 || dy != 0 {
		t.Fatal("delta not cleared by PostUpdate")
	}
	m.HandleCursor(116, 90)
	if dx, _ := m.CursorDelta(); dx != 1 {
		t.Fatalf("dx = %v after PostUpdate, want 1", dx)
	}
}

func TestOutOfRangeAction(t *testing.T) {
	m := NewManager()
	if m.IsActive(ActionCount) || m.JustPressed(-1) || m.JustReleased(ActionCount) {
		t.Fatal("out-of-range action reported active")
	}
	if Action(99).String() != "unknown" || ActionQuit.String() != "quit" {
		t.Fatal("unexpected action names")
	}
}
