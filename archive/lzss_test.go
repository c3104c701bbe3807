package archive

import (
	"bytes"
	"testing"
)

func TestDecompress(t *testing.T) {
	data := []byte{
		0xFC, 0x54, 0x50, 0x43, 0x33, 0x32, 0x00, 0x0F,
		0x00, 0x0F, 0x00, 0x85, 0x01, 0x1F, 0x01, 0x0F,
	}
	want := append([]byte("TPC32\x00"), make([]byte, 34)...)

	got, err := Decompress(data, len(want))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Decompress = % x, want % x", got, want)
	}
}

func TestDecompressBackReference(t *testing.T) {
	// One literal 'a', then a back-reference with distance 1 and length 5
	// copying it forward: "aaaaaa".
	data := []byte{0x80, 'a', 0x03, 0x00}
	got, err := Decompress(data, 6)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != "aaaaaa" {
		t.Errorf("Decompress = %q, want %q", got, "aaaaaa")
	}
}

func TestDecompressErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		size int
	}{
		{"empty input", nil, 1},
		{"flag only", []byte{0xFF}, 1},
		{"truncated reference", []byte{0x00, 0x03}, 4},
		{"reference before output", []byte{0x00, 0x03, 0x00}, 4},
		{"distance too far", []byte{0x80, 'a', 0x13, 0x00}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decompress(tt.data, tt.size); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompressRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("x"),
		[]byte("exactly8"),
		[]byte("TPC32\x00 and then some more bytes to cross a flag boundary"),
		bytes.Repeat([]byte{0xAB}, 1000),
	}
	for _, p := range payloads {
		got, err := Decompress(Compress(p), len(p))
		if err != nil {
			t.Errorf("payload %d bytes: %v", len(p), err)
			continue
		}
		if !bytes.Equal(got, p) {
			t.Errorf("payload %d bytes: round trip mismatch", len(p))
		}
	}
}
