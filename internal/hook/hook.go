// Package hook runs a user-supplied command whenever a target serial is
// found.
package hook

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hhoikoo/serial-scanner/internal/scan"
)

// Runner executes the found hook with timeout support.
type Runner struct {
	command   string
	timeoutMs int
}

// NewRunner creates a Runner for the given executable with the specified
// timeout in milliseconds.
func NewRunner(command string, timeoutMs int) *Runner {
	return &Runner{
		command:   command,
		timeoutMs: timeoutMs,
	}
}

// Run executes the hook for one newly found serial. The serial is passed
// as the first argument and the environment carries SERIALSCAN_SERIAL,
// SERIALSCAN_FOUND_COUNT and SERIALSCAN_FOUND (comma separated, in the
// order the serials were found).
func (r *Runner) Run(serial string, found []string) error {
	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, serial)
	cmd.Env = append(os.Environ(),
		"SERIALSCAN_SERIAL="+serial,
		"SERIALSCAN_FOUND_COUNT="+strconv.Itoa(len(found)),
		"SERIALSCAN_FOUND="+strings.Join(found, ","),
	)

	// Capture stderr for error reporting
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	// Check for context deadline exceeded (timeout)
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("hook timeout after %dms", r.timeoutMs)
	}

	if err != nil {
		stderrStr := stderr.String()
		if stderrStr != "" {
			return fmt.Errorf("hook failed: %w, stderr: %s", err, stderrStr)
		}
		return fmt.Errorf("hook failed: %w", err)
	}

	return nil
}

// Notifier adapts a Runner to the scan session's observer interface. The
// hook runs on its own goroutine so a slow command never stalls the
// session; failures are logged and otherwise ignored.
type Notifier struct {
	runner *Runner
}

// NewNotifier wraps a Runner for subscription to a session.
func NewNotifier(runner *Runner) *Notifier {
	return &Notifier{runner: runner}
}

// TargetFound runs the hook for the newly found serial.
func (n *Notifier) TargetFound(serial string, found []string) {
	go func() {
		if err := n.runner.Run(serial, found); err != nil {
			log.Printf("Hook error for %s: %v", serial, err)
		}
	}()
}

// BorderChanged is ignored; the hook only reacts to found serials.
func (n *Notifier) BorderChanged(state scan.BorderState) {}
