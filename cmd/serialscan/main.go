package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hhoikoo/serial-scanner/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(os.Args[2:])
	case "sheet":
		err = runSheet(os.Args[2:])
	case "batches":
		err = runBatches(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "scan-image":
		err = runScanImage(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "serialscan: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: serialscan <command> [flags]

Find boxes by their QR serial labels.

Commands:
  scan        run a live scanning session against the camera
  sheet       generate a printable QR label sheet and record the batch
  batches     list recorded batches or show one batch's serials
  encode      print the QR payload for serials
  decode      validate payloads and print their serials
  scan-image  decode payloads from still image files

Run 'serialscan <command> -h' for command flags.
`)
}

// configFlag registers the shared -config flag on a subcommand flag set.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "path of the config file")
}

// loadConfig returns the built-in defaults when no config path was given.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
