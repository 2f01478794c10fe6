// Package tray provides the system tray menu.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/mode"
)

// Tray is the system tray menu.
type Tray struct {
	onToggle  func(enabled bool)
	onToolbar func(visible bool)
	onUndo    func()
	onRedo    func()
	onClear   func()
	onOpen    func()
	onQuit    func()
	enabled   bool
	toolbar   bool
	mode      mode.Mode
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuToolbar *systray.MenuItem
	menuMode    *systray.MenuItem
}

// New creates a Tray with tracking enabled and the toolbar shown.
func New() *Tray {
	return &Tray{
		enabled: true,
		toolbar: true,
		mode:    mode.Idle,
	}
}

// OnToggle sets the callback run when hand tracking is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnToolbar sets the callback run when the toolbar is shown or hidden.
func (t *Tray) OnToolbar(fn func(visible bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToolbar = fn
}

// OnEdit sets the undo, redo and clear callbacks.
func (t *Tray) OnEdit(undo, redo, clear func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUndo, t.onRedo, t.onClear = undo, redo, clear
}

// OnOpen sets the callback run by "Open in Browser".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until systray.Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand drawing")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Current mode")
	t.menuMode.Disable()
	systray.AddSeparator()
	t.menuToolbar = systray.AddMenuItemCheckbox("Show Toolbar", "Show or hide the toolbar", t.toolbar)
	t.mu.Unlock()

	menuUndo := systray.AddMenuItem("Undo", "Undo the last stroke")
	menuRedo := systray.AddMenuItem("Redo", "Redo the last undone stroke")
	menuClear := systray.AddMenuItem("Clear Canvas", "Clear the canvas")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the canvas in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuToolbar.ClickedCh:
				t.handleToolbar()
			case <-menuUndo.ClickedCh:
				t.call(func() func() { return t.onUndo })
			case <-menuRedo.ClickedCh:
				t.call(func() func() { return t.onRedo })
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func modeTitle(m mode.Mode) string {
	switch m {
	case mode.Generating:
		return "Generating..."
	case mode.Showing:
		return "Showing result"
	default:
		return "Drawing"
	}
}

// call runs the callback returned by get, read under the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleToolbar() {
	t.mu.Lock()
	t.toolbar = !t.toolbar
	visible := t.toolbar
	if t.menuToolbar != nil {
		if visible {
			t.menuToolbar.Check()
		} else {
			t.menuToolbar.Uncheck()
		}
	}
	callback := t.onToolbar
	t.mu.Unlock()

	if callback != nil {
		callback(visible)
	}
}

func (t *Tray) handleQuit() {
	t.call(func() func() { return t.onQuit })
	systray.Quit()
}

// SetMode updates the mode display.
func (t *Tray) SetMode(m mode.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = m
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(m))
	}
}

// IsEnabled returns the current tracking state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// ToolbarVisible returns whether the toolbar item is checked.
func (t *Tray) ToolbarVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.toolbar
}
