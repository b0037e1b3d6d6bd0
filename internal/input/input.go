// Package input maps GLFW key events onto the viewer's logical actions and
// tracks cursor motion between frames.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer action, not a physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionFast
	ActionToggleOcclusion
	ActionToggleBounds
	ActionLogStats
	ActionTuneNext
	ActionTuneDecrease
	ActionTuneIncrease
	ActionCycleGenerator
	ActionQuit
	ActionCount
)

var actionNames = [ActionCount]string{
	"move forward", "move backward", "move left", "move right", "move up",
	"move down", "fast", "toggle occlusion", "toggle bounds", "log stats",
	"tune next", "tune decrease", "tune increase", "cycle generator", "quit",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Manager holds the current and edge state of every action. Event handlers
// may run on the GLFW callback path while queries run in the frame loop.
type Manager struct {
	mu sync.RWMutex

	keyToActions map[glfw.Key][]Action

	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	cursorX, cursorY float64
	dx, dy           float64
	haveCursor       bool
}

// NewManager returns a manager with the default fly-camera bindings.
func NewManager() *Manager {
	m := &Manager{keyToActions: make(map[glfw.Key][]Action)}

	m.BindKey(glfw.KeyW, ActionMoveForward)
	m.BindKey(glfw.KeyUp, ActionMoveForward)
	m.BindKey(glfw.KeyS, ActionMoveBackward)
	m.BindKey(glfw.KeyDown, ActionMoveBackward)
	m.BindKey(glfw.KeyA, ActionMoveLeft)
	m.BindKey(glfw.KeyLeft, ActionMoveLeft)
	m.BindKey(glfw.KeyD, ActionMoveRight)
	m.BindKey(glfw.KeyRight, ActionMoveRight)
	m.BindKey(glfw.KeySpace, ActionMoveUp)
	m.BindKey(glfw.KeyLeftShift, ActionMoveDown)
	m.BindKey(glfw.KeyLeftControl, ActionFast)
	m.BindKey(glfw.KeyO, ActionToggleOcclusion)
	m.BindKey(glfw.KeyB, ActionToggleBounds)
	m.BindKey(glfw.KeyV, ActionLogStats)
	m.BindKey(glfw.KeyTab, ActionTuneNext)
	m.BindKey(glfw.KeyLeftBracket, ActionTuneDecrease)
	m.BindKey(glfw.KeyRightBracket, ActionTuneIncrease)
	m.BindKey(glfw.KeyG, ActionCycleGenerator)
	m.BindKey(glfw.KeyEscape, ActionQuit)
	return m
}

// BindKey adds an action to a key. A key may drive several actions and
// several keys may drive the same action.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyToActions[key] = append(m.keyToActions[key], action)
}

func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keyToActions, key)
}

// HandleKey records a key event. Edges are latched until PostUpdate so a
// press and release inside one frame still registers.
func (m *Manager) HandleKey(key glfw.Key, action glfw.Action) {
	pressed := action == glfw.Press || action == glfw.Repeat

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, act := range m.keyToActions[key] {
		if pressed && !m.current[act] {
			m.justPressed[act] = true
		}
		if !pressed && m.current[act] {
			m.justReleased[act] = true
		}
		m.current[act] = pressed
	}
}

// HandleCursor accumulates motion since the last PostUpdate. The first
// position only seeds the tracker.
func (m *Manager) HandleCursor(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveCursor {
		m.dx += x - m.cursorX
		m.dy += y - m.cursorY
	}
	m.cursorX, m.cursorY = x, y
	m.haveCursor = true
}

// Attach installs the key and cursor callbacks on window.
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleKey(key, action)
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		m.HandleCursor(x, y)
	})
}

// PostUpdate clears edge flags and the cursor delta; call it once at the end
// of each frame.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.justPressed = [ActionCount]bool{}
	m.justReleased = [ActionCount]bool{}
	m.dx, m.dy = 0, 0
}

func (m *Manager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current[action]
}

func (m *Manager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

func (m *Manager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}

// CursorDelta is the cursor motion accumulated this frame.
func (m *Manager) CursorDelta() (dx, dy float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dx, m.dy
}

// Axis returns +1, -1 or 0 for a pair of opposing actions.
func (m *Manager) Axis(positive, negative Action) float32 {
	var v float32
	if m.IsActive(positive) {
		v++
	}
	if m.IsActive(negative) {
		v--
	}
	return v
}
