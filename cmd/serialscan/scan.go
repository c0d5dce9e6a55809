package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/hhoikoo/serial-scanner/internal/capture"
	"github.com/hhoikoo/serial-scanner/internal/config"
	"github.com/hhoikoo/serial-scanner/internal/detect"
	"github.com/hhoikoo/serial-scanner/internal/hook"
	"github.com/hhoikoo/serial-scanner/internal/overlay"
	"github.com/hhoikoo/serial-scanner/internal/scan"
	"github.com/hhoikoo/serial-scanner/internal/store"
	"github.com/hhoikoo/serial-scanner/internal/tray"
)

// consoleNotifier logs session events to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) TargetFound(serial string, found []string) {
	log.Printf("Found %s (%d of session: %s)", serial, len(found), strings.Join(found, ", "))
}

func (consoleNotifier) BorderChanged(state scan.BorderState) {
	log.Printf("State: %s", state)
}

// terminalBell stands in for a vibration motor on the desktop.
type terminalBell struct{}

func (terminalBell) Pulse() {
	fmt.Print("\a")
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	cfgPath := configFlag(fs)
	targetsArg := fs.String("targets", "", "target serials, comma or newline separated")
	targetsFile := fs.String("targets-file", "", "file with one target serial per line")
	batchID := fs.String("batch", "", "load targets from a recorded batch")
	device := fs.Int("device", -1, "capture device index (overrides config)")
	detectorName := fs.String("detector", "", "detector backend: opencv or zxing (overrides config)")
	hookCmd := fs.String("hook", "", "command run on each newly found target (overrides config)")
	dataDir := fs.String("data", "", "data directory (overrides config)")
	noDisplay := fs.Bool("no-display", false, "run without the preview window")
	useTray := fs.Bool("tray", false, "run in the system tray instead of a preview window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("SerialScan - QR Box Finder")

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *device >= 0 {
		cfg.Camera.DeviceID = *device
	}
	if *detectorName != "" {
		cfg.Scanner.Detector = *detectorName
	}
	if *hookCmd != "" {
		cfg.Hook.Command = *hookCmd
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	targets, err := collectTargets(cfg, *targetsArg, *targetsFile, *batchID)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Println("No targets defined; the border stays idle until targets are set")
	}

	detector, err := newDetector(cfg.Scanner.Detector)
	if err != nil {
		return err
	}
	defer detector.Close()

	camera := capture.NewCamera(cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height)

	session, err := scan.New(scan.Config{
		Camera:         camera,
		Detector:       detector,
		Haptic:         terminalBell{},
		DetectInterval: msDuration(cfg.Scanner.DetectIntervalMS),
		EvalInterval:   msDuration(cfg.Scanner.EvalIntervalMS),
		VisibleTimeout: msDuration(cfg.Scanner.VisibleTimeoutMS),
		FoundHold:      msDuration(cfg.Scanner.FoundHoldMS),
	})
	if err != nil {
		return err
	}
	session.Subscribe(consoleNotifier{})

	if cfg.Hook.Command != "" {
		session.Subscribe(hook.NewNotifier(hook.NewRunner(cfg.Hook.Command, cfg.Hook.TimeoutMS)))
	}

	session.SetTargets(targets)
	if len(targets) > 0 {
		log.Printf("Searching for %d target(s)", len(targets))
	}

	if *useTray {
		return runTrayMode(session)
	}

	if err := session.Start(); err != nil {
		return err
	}
	defer session.Stop()

	// Stop on Ctrl-C so the camera is released on the way out
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		session.Stop()
	}()

	if *noDisplay || !cfg.Display.Enabled {
		for session.Active() {
			time.Sleep(100 * time.Millisecond)
		}
		return nil
	}

	return runDisplayLoop(session, camera, cfg)
}

// runTrayMode drives the session from the system tray menu. Blocks until
// the menu quits.
func runTrayMode(session *scan.Session) error {
	t := tray.New()
	session.Subscribe(t)

	t.OnToggle(func(scanning bool) {
		if scanning {
			if err := session.Start(); err != nil {
				log.Printf("Error starting session: %v", err)
				t.SetScanning(false)
			}
		} else {
			session.Stop()
		}
	})
	t.OnReset(func() {
		session.Reset()
	})
	t.OnQuit(func() {
		session.Stop()
	})

	if err := session.Start(); err != nil {
		return err
	}
	t.SetScanning(true)

	t.Run()
	return nil
}

// runDisplayLoop shows the annotated preview until the session stops.
// Runs on the calling goroutine; q or ESC stops, r resets the found list.
func runDisplayLoop(session *scan.Session, camera capture.Camera, cfg config.Config) error {
	window := gocv.NewWindow("SerialScan")
	defer window.Close()

	nativeW, nativeH := camera.Resolution()
	displayW, displayH := cfg.Display.Width, cfg.Display.Height
	if displayW <= 0 || displayH <= 0 {
		displayW, displayH = nativeW, nativeH
	}
	renderer := overlay.NewRenderer(nativeW, nativeH, displayW, displayH)

	display := gocv.NewMat()
	defer display.Close()

	for session.Active() {
		frame, err := camera.ReadFrame()
		if err != nil {
			// Stop() closes the camera under us; anything else is a
			// transient the next read retries.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		renderer.Render(frame, &display, session.Visible(), session.State())
		frame.Close()

		window.IMShow(display)
		switch window.WaitKey(16) {
		case 'q', 27: // ESC
			session.Stop()
		case 'r':
			session.Reset()
		}
	}

	return nil
}

// collectTargets merges target serials from the inline flag, a targets
// file and a recorded batch.
func collectTargets(cfg config.Config, inline, file, batchID string) ([]string, error) {
	var targets []string

	if batchID != "" {
		st, err := openStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		serials, err := st.Batches().Serials(batchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
		}
		targets = append(targets, serials...)
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read targets file: %w", err)
		}
		targets = append(targets, scan.ParseTargets(string(data))...)
	}

	if inline != "" {
		targets = append(targets, scan.ParseTargets(inline)...)
	}

	return targets, nil
}

func newDetector(name string) (detect.Detector, error) {
	switch name {
	case "zxing":
		return detect.NewZXingDetector(), nil
	case "", "opencv":
		return detect.NewOpenCVDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector %q (want opencv or zxing)", name)
	}
}

func openStore(dataDir string) (*store.Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.New(filepath.Join(dataDir, "serialscan.db"))
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
