package archive

import "fmt"

// ---------------------------------------------------------------------------
// LZSS codec
// ---------------------------------------------------------------------------
//
// The engine's blob compression: a flag byte covers eight items, MSB first.
// A set bit means one literal byte; a clear bit means a little-endian u16
// back-reference with length (w & 0xF) + 2 and distance (w >> 4) + 1.

// Decompress expands a compressed payload to exactly size bytes.
func Decompress(data []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	pos := 0
	read := func() (byte, error) {
		if pos >= len(data) {
			return 0, fmt.Errorf("compressed data ran out at byte %d", pos)
		}
		b := data[pos]
		pos++
		return b, nil
	}

	var flags byte
	for i := 0; len(out) < size; i++ {
		cnt := i % 8
		if cnt == 0 {
			f, err := read()
			if err != nil {
				return nil, err
			}
			flags = f
		}
		if flags&(0x80>>cnt) != 0 {
			b, err := read()
			if err != nil {
				return nil, err
			}
			out = append(out, b)
			continue
		}
		lo, err := read()
		if err != nil {
			return nil, err
		}
		hi, err := read()
		if err != nil {
			return nil, err
		}
		w := uint16(lo) | uint16(hi)<<8
		length := int(w&0xF) + 2
		dist := int(w >> 4)
		if dist+1 > len(out) {
			return nil, fmt.Errorf("back-reference distance %d exceeds output at byte %d", dist+1, pos)
		}
		for j := 0; j < length && len(out) < size; j++ {
			out = append(out, out[len(out)-dist-1])
		}
	}

	if len(out) != size {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", len(out), size)
	}
	return out, nil
}

// Compress emits the stored-literal form: all-ones flag bytes followed by
// eight literals each. The engine's decoder accepts it unchanged; actual
// back-reference search buys nothing for round-trip fidelity.
func Compress(data []byte) []byte {
	out := make([]byte, 0, len(data)+(len(data)+7)/8)
	for i, b := range data {
		if i%8 == 0 {
			out = append(out, 0xFF)
		}
		out = append(out, b)
	}
	return out
}
