package payload

import (
	"errors"
	"strings"
	"testing"
)

func TestEncode_CanonicalForm(t *testing.T) {
	got, err := Encode("SN-42")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// CRC-32(IEEE) of "SN-42lablup-inventory" is 0x1e2387cb.
	want := `{"s":"SN-42","src":"lablup-inventory","cs":"1e2387cb"}`
	if got != want {
		t.Errorf("encoded payload = %s, want %s", got, want)
	}
}

func TestEncode_EmptySerial(t *testing.T) {
	_, err := Encode("")
	if !errors.Is(err, ErrEmptySerial) {
		t.Errorf("expected ErrEmptySerial, got %v", err)
	}
}

func TestChecksum_Format(t *testing.T) {
	// Known vectors over serial+SourceTag.
	vectors := map[string]string{
		"SN-42":    "1e2387cb",
		"SN-1":     "8f9eaa5f",
		"BOX-0001": "fb527279",
		"box 7":    "932b6526",
	}

	for serial, want := range vectors {
		got := Checksum(serial)
		if got != want {
			t.Errorf("Checksum(%q) = %s, want %s", serial, got, want)
		}
		if len(got) != 8 {
			t.Errorf("Checksum(%q) has length %d, want 8", serial, len(got))
		}
		if got != strings.ToLower(got) {
			t.Errorf("Checksum(%q) = %s is not lowercase", serial, got)
		}
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	serials := []string{
		"SN-42",
		"BOX-0001",
		"A",
		"box 7",
		"serial-with-a-rather-long-identifier-0123456789",
		"ünïcode-箱-42",
	}

	for _, serial := range serials {
		encoded, err := Encode(serial)
		if err != nil {
			t.Fatalf("encode %q failed: %v", serial, err)
		}

		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("decode of encode(%q) failed: %v", serial, err)
		}
		if decoded != serial {
			t.Errorf("round trip of %q yielded %q", serial, decoded)
		}
	}
}

func TestDecode_NotStructured(t *testing.T) {
	inputs := []string{
		"not json",
		"",
		"https://example.com/menu",
		`"just a string"`,
		"[1,2,3]",
		"null",
		"42",
		`{"s":"truncated`,
	}

	for _, raw := range inputs {
		_, err := Decode(raw)
		if !errors.Is(err, ErrNotStructured) {
			t.Errorf("Decode(%q) error = %v, want ErrNotStructured", raw, err)
		}
	}
}

func TestDecode_MissingFields(t *testing.T) {
	inputs := []string{
		`{"not":"ours"}`,
		`{}`,
		`{"s":"SN-1"}`,
		`{"s":"SN-1","src":"lablup-inventory"}`,
		`{"src":"lablup-inventory","cs":"8f9eaa5f"}`,
		// Empty fields count as missing.
		`{"s":"","src":"lablup-inventory","cs":"8f9eaa5f"}`,
		`{"s":"SN-1","src":"lablup-inventory","cs":""}`,
		// Wrong-typed fields count as missing.
		`{"s":1,"src":"lablup-inventory","cs":"8f9eaa5f"}`,
	}

	for _, raw := range inputs {
		_, err := Decode(raw)
		if !errors.Is(err, ErrMissingFields) {
			t.Errorf("Decode(%q) error = %v, want ErrMissingFields", raw, err)
		}
	}
}

func TestDecode_UnknownSource(t *testing.T) {
	inputs := []string{
		`{"s":"SN-1","src":"acme-labels","cs":"8f9eaa5f"}`,
		// Source is checked before the checksum, so even a nonsense cs
		// reports the foreign source.
		`{"s":"SN-1","src":"lablup-inventory2","cs":"zzzzzzzz"}`,
	}

	for _, raw := range inputs {
		_, err := Decode(raw)
		if !errors.Is(err, ErrUnknownSource) {
			t.Errorf("Decode(%q) error = %v, want ErrUnknownSource", raw, err)
		}
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	// A wrong but well-formed checksum.
	_, err := Decode(`{"s":"SN-1","src":"lablup-inventory","cs":"deadbeef"}`)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	// A serial swapped in without recomputing the checksum.
	encoded, err := Encode("SN-1")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	tampered := strings.Replace(encoded, "SN-1", "SN-2", 1)
	_, err = Decode(tampered)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch for tampered serial, got %v", err)
	}
}

func TestDecode_ChecksumSensitivity(t *testing.T) {
	encoded, err := Encode("SN-42")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Flip each checksum digit in turn; every variant must be rejected.
	// cs of "SN-42" is 1e2387cb.
	const cs = "1e2387cb"
	for i := 0; i < len(cs); i++ {
		flipped := []byte(cs)
		if flipped[i] == 'f' {
			flipped[i] = '0'
		} else if flipped[i] == '9' {
			flipped[i] = 'a'
		} else {
			flipped[i]++
		}

		tampered := strings.Replace(encoded, cs, string(flipped), 1)
		_, err := Decode(tampered)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("flipping cs digit %d: error = %v, want ErrChecksumMismatch", i, err)
		}
	}
}
