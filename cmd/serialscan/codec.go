package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/hhoikoo/serial-scanner/internal/detect"
	"github.com/hhoikoo/serial-scanner/internal/payload"
)

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	qrDir := fs.String("qr", "", "also write a QR PNG per serial into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("no serials given")
	}

	if *qrDir != "" {
		if err := os.MkdirAll(*qrDir, 0755); err != nil {
			return fmt.Errorf("failed to create QR directory: %w", err)
		}
	}

	for _, serial := range fs.Args() {
		text, err := payload.Encode(serial)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", serial, err)
		}
		fmt.Println(text)

		if *qrDir != "" {
			name := strings.ReplaceAll(serial, string(filepath.Separator), "_") + ".png"
			path := filepath.Join(*qrDir, name)
			if err := qrcode.WriteFile(text, qrcode.Medium, 256, path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
	}

	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("no payloads given")
	}

	failed := 0
	for i, raw := range fs.Args() {
		serial, err := payload.Decode(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "payload %d: %v\n", i+1, err)
			failed++
			continue
		}
		fmt.Println(serial)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d payloads invalid", failed, fs.NArg())
	}
	return nil
}

func runScanImage(args []string) error {
	fs := flag.NewFlagSet("scan-image", flag.ExitOnError)
	raw := fs.Bool("raw", false, "print raw QR text without payload validation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("no image files given")
	}

	detector := detect.NewZXingDetector()
	defer detector.Close()

	failed := 0
	for _, path := range fs.Args() {
		if err := scanImageFile(detector, path, *raw, fs.NArg() > 1); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files had no readable labels", failed, fs.NArg())
	}
	return nil
}

func scanImageFile(detector *detect.ZXingDetector, path string, raw, prefix bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	detections, err := detector.DetectImage(img)
	if err != nil {
		return err
	}
	if len(detections) == 0 {
		return fmt.Errorf("no QR codes found")
	}

	printed := 0
	for _, det := range detections {
		text := det.Text
		if !raw {
			serial, err := payload.Decode(det.Text)
			if err != nil {
				continue
			}
			text = serial
		}
		if prefix {
			fmt.Printf("%s: %s\n", path, text)
		} else {
			fmt.Println(text)
		}
		printed++
	}

	if printed == 0 {
		return fmt.Errorf("no valid payloads among %d QR code(s)", len(detections))
	}
	return nil
}
