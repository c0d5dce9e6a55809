// Package payload implements the checksummed QR payload format used on box labels.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
)

// SourceTag is the fixed source identifier embedded in every payload.
// It distinguishes this scheme from arbitrary third-party QR content.
const SourceTag = "lablup-inventory"

// ErrEmptySerial is returned by Encode when the serial number is empty.
var ErrEmptySerial = errors.New("serial number is empty")

// Decode validation errors, one per stage, in the order the stages run.
var (
	// ErrNotStructured is returned when the raw text does not parse as a JSON object.
	ErrNotStructured = errors.New("payload is not structured")
	// ErrMissingFields is returned when any of the s, src or cs fields is absent or empty.
	ErrMissingFields = errors.New("payload is missing required fields")
	// ErrUnknownSource is returned when the src field does not equal SourceTag.
	ErrUnknownSource = errors.New("payload has unknown source")
	// ErrChecksumMismatch is returned when the cs field disagrees with the recomputed checksum.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")
)

// record is the canonical wire form. Field order is part of the format.
type record struct {
	S   string `json:"s"`
	Src string `json:"src"`
	CS  string `json:"cs"`
}

// Checksum returns the CRC-32 (IEEE) checksum of serial+SourceTag,
// rendered as 8 lowercase hex digits, zero-padded.
func Checksum(serial string) string {
	return checksumOf(serial, SourceTag)
}

func checksumOf(s, src string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(s+src)))
}

// Encode builds the canonical payload text for a serial number:
// a JSON object carrying the serial, the source tag, and a checksum
// over their concatenation.
func Encode(serial string) (string, error) {
	if serial == "" {
		return "", ErrEmptySerial
	}

	data, err := json.Marshal(record{
		S:   serial,
		Src: SourceTag,
		CS:  checksumOf(serial, SourceTag),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	return string(data), nil
}

// Decode validates raw scanned text and returns the serial number it carries.
//
// Validation runs in four stages and fails with the first stage's error:
// the text must parse as a JSON object (ErrNotStructured), carry non-empty
// s, src and cs fields (ErrMissingFields), name this system's source tag
// (ErrUnknownSource), and carry a checksum matching the recomputed value
// (ErrChecksumMismatch). The cheap structural checks run before the
// checksum so foreign QR content is rejected without hashing.
func Decode(raw string) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return "", ErrNotStructured
	}

	// Non-string values fail the assertion and read as absent.
	s, _ := fields["s"].(string)
	src, _ := fields["src"].(string)
	cs, _ := fields["cs"].(string)
	if s == "" || src == "" || cs == "" {
		return "", ErrMissingFields
	}

	if src != SourceTag {
		return "", ErrUnknownSource
	}

	if cs != checksumOf(s, src) {
		return "", ErrChecksumMismatch
	}

	return s, nil
}
