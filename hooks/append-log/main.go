// Package main provides a found-log hook for the scanner. It appends one
// tab-separated line per found box to a log file, so a scan run can be
// reconciled against the inventory afterwards.
//
// The log path comes from SERIALSCAN_LOG, defaulting to found.log in the
// working directory. Each line carries the timestamp, the serial and the
// running count of boxes found this session.
package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: append-log <serial>")
		os.Exit(2)
	}
	serial := os.Args[1]

	path := os.Getenv("SERIALSCAN_LOG")
	if path == "" {
		path = "found.log"
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "append-log: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\n",
		time.Now().Format(time.RFC3339), serial, os.Getenv("SERIALSCAN_FOUND_COUNT"))
	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "append-log: %v\n", err)
		os.Exit(1)
	}
}
