// Package config loads scanner settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains the settings for the scanner, the preview display and
// sheet generation.
type Config struct {
	Camera  CameraConfig  `yaml:"camera"`
	Scanner ScannerConfig `yaml:"scanner"`
	Display DisplayConfig `yaml:"display"`
	Sheet   SheetConfig   `yaml:"sheet"`
	Hook    HookConfig    `yaml:"hook"`
	DataDir string        `yaml:"dataDir"` // directory holding the batch database and generated sheets
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `yaml:"deviceId"` // video capture device index
	Width    int `yaml:"width"`    // requested capture width in pixels
	Height   int `yaml:"height"`   // requested capture height in pixels
}

// ScannerConfig tunes the detection and evaluation loops.
type ScannerConfig struct {
	Detector         string `yaml:"detector"`         // "opencv" or "zxing"
	DetectIntervalMS int    `yaml:"detectIntervalMs"` // time in ms between detection passes
	EvalIntervalMS   int    `yaml:"evalIntervalMs"`   // time in ms between border evaluations
	VisibleTimeoutMS int    `yaml:"visibleTimeoutMs"` // time in ms a code stays visible after its last sighting
	FoundHoldMS      int    `yaml:"foundHoldMs"`      // time in ms the found border outlasts the last sighting
}

// DisplayConfig sizes the live preview window.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"` // show the live preview window
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// SheetConfig is the label sheet layout.
type SheetConfig struct {
	PageSize      string  `yaml:"pageSize"` // "A4" or "Letter"
	Columns       int     `yaml:"columns"`
	Rows          int     `yaml:"rows"`
	MarginMM      float64 `yaml:"marginMm"`
	GapMM         float64 `yaml:"gapMm"`
	LabelHeightMM float64 `yaml:"labelHeightMm"`
}

// HookConfig is the command run when a target is found.
type HookConfig struct {
	Command   string `yaml:"command"`   // executable run on each newly found target
	TimeoutMS int    `yaml:"timeoutMs"` // kill the hook after this time in ms
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
		},
		Scanner: ScannerConfig{
			Detector:         "opencv",
			DetectIntervalMS: 100,
			EvalIntervalMS:   33,
			VisibleTimeoutMS: 500,
			FoundHoldMS:      300,
		},
		Display: DisplayConfig{
			Enabled: true,
			Width:   960,
			Height:  720,
		},
		Sheet: SheetConfig{
			PageSize:      "A4",
			Columns:       4,
			Rows:          6,
			MarginMM:      10,
			GapMM:         4,
			LabelHeightMM: 6,
		},
		Hook: HookConfig{
			TimeoutMS: 5000,
		},
		DataDir: "data",
	}
}

// Load reads the YAML file at path layered over the defaults: keys the
// file does not set keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
