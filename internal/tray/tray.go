// Package tray provides a system tray interface for the box scanner.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/hhoikoo/serial-scanner/internal/scan"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(scanning bool)
	onReset  func()
	onQuit   func()
	scanning bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuState  *systray.MenuItem
	menuFound  *systray.MenuItem
}

// New creates a new Tray instance. Scanning starts off.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback function to be called when scanning is
// toggled from the menu.
func (t *Tray) OnToggle(fn func(scanning bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback function to be called when the found list is
// reset from the menu.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnQuit sets the callback function to be called when the quit menu item
// is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("SerialScan")
	systray.SetTooltip("QR box scanner")

	// Create menu items
	t.menuToggle = systray.AddMenuItem("▶ Start scanning", "Toggle the scan session")
	systray.AddSeparator()

	t.menuState = systray.AddMenuItem("State: idle", "Current border state")
	t.menuState.Disable()
	t.menuFound = systray.AddMenuItem("Found: 0", "Targets found this session")
	t.menuFound.Disable()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset found list", "Clear found targets and start over")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SerialScan")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.handleReset()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.scanning = !t.scanning
	scanning := t.scanning
	t.updateToggleLocked()
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(scanning)
	}
}

// handleReset handles the reset menu item click.
func (t *Tray) handleReset() {
	t.mu.Lock()
	if t.menuFound != nil {
		t.menuFound.SetTitle("Found: 0")
	}
	callback := t.onReset
	t.mu.Unlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetScanning reflects a session state change that did not come from the
// menu, such as a failed start.
func (t *Tray) SetScanning(scanning bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanning = scanning
	t.updateToggleLocked()
}

func (t *Tray) updateToggleLocked() {
	if t.menuToggle == nil {
		return
	}
	if t.scanning {
		t.menuToggle.SetTitle("■ Stop scanning")
	} else {
		t.menuToggle.SetTitle("▶ Start scanning")
	}
}

// IsScanning returns whether the menu believes a session is running.
func (t *Tray) IsScanning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scanning
}

// TargetFound updates the found counter. Part of the session observer
// interface.
func (t *Tray) TargetFound(serial string, found []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuFound != nil {
		t.menuFound.SetTitle(fmt.Sprintf("Found: %d", len(found)))
	}
}

// BorderChanged mirrors the border state in the menu. Part of the session
// observer interface.
func (t *Tray) BorderChanged(state scan.BorderState) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuState != nil {
		t.menuState.SetTitle("State: " + state.String())
	}
}
