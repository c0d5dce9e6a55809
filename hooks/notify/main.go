// Package main provides a desktop notification hook for the scanner.
// It pops a system notification whenever a target box is found.
//
// Wire it up with:
//
//	serialscan scan -targets SN-42 -hook /path/to/notify
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: notify <serial>")
		os.Exit(2)
	}
	serial := os.Args[1]

	count := os.Getenv("SERIALSCAN_FOUND_COUNT")
	if count == "" {
		count = "?"
	}

	title := "Box found"
	body := fmt.Sprintf("%s (%s found this session)", serial, count)

	if err := notify(title, body); err != nil {
		fmt.Fprintf(os.Stderr, "notify: %v\n", err)
		os.Exit(1)
	}
}

// notify shows the notification with whatever the platform offers,
// falling back to stdout where there is no notification daemon.
func notify(title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		return exec.Command("notify-send", title, body).Run()
	default:
		_, err := fmt.Printf("%s: %s\n", title, body)
		return err
	}
}
