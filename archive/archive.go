// Package archive reads and writes PACL containers, the table-of-contents
// format bundling many named SEEN scripts into one file. Each entry's
// payload is an LZSS-compressed "PACK" blob.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	magic     = []byte("PACL")
	blobMagic = []byte("PACK")
)

// ErrBadMagic indicates the buffer is not a PACL archive.
var ErrBadMagic = errors.New("not a PACL archive: bad magic")

// blob header: magic(4) + entries(4) + orgsize(4) + arcsize(4).
const blobHeaderSize = 16

// entry record: name(16) + offset(4) + arcsize(4) + filesize(4) + flags(4).
const entrySize = 32

// nameSize is the fixed NUL-padded name field width.
const nameSize = 16

// Entry is one table-of-contents record.
type Entry struct {
	Name       string
	Offset     uint32 // byte offset of the entry's PACK blob
	PackedSize uint32 // blob size including its 16-byte header
	Size       uint32 // decompressed payload size
	Flags      uint32
}

// Archive is a parsed PACL container. The two 12-byte head blocks are
// opaque and copied through on write.
type Archive struct {
	Head1   [12]byte
	Head2   [12]byte
	Entries []Entry

	blobs [][]byte // compressed payloads, aligned with Entries
}

// Read parses a PACL archive. The table of contents and every blob are
// read eagerly; payloads stay compressed until Extract.
func Read(buf []byte) (*Archive, error) {
	if len(buf) < 4+12+4+12 || !bytes.Equal(buf[:4], magic) {
		return nil, ErrBadMagic
	}
	var a Archive
	copy(a.Head1[:], buf[4:16])
	count := binary.LittleEndian.Uint32(buf[16:])
	copy(a.Head2[:], buf[20:32])

	pos := 32
	if pos+int(count)*entrySize > len(buf) {
		return nil, fmt.Errorf("truncated table of contents: %d entries declared", count)
	}
	a.Entries = make([]Entry, count)
	for i := range a.Entries {
		e := &a.Entries[i]
		rec := buf[pos : pos+entrySize]
		e.Name = cString(rec[:nameSize])
		e.Offset = binary.LittleEndian.Uint32(rec[16:])
		e.PackedSize = binary.LittleEndian.Uint32(rec[20:])
		e.Size = binary.LittleEndian.Uint32(rec[24:])
		e.Flags = binary.LittleEndian.Uint32(rec[28:])
		pos += entrySize
	}

	a.blobs = make([][]byte, count)
	for i := range a.Entries {
		e := &a.Entries[i]
		if pos+blobHeaderSize > len(buf) {
			return nil, fmt.Errorf("entry %q: truncated blob header", e.Name)
		}
		if !bytes.Equal(buf[pos:pos+4], blobMagic) {
			return nil, fmt.Errorf("entry %q: bad blob magic", e.Name)
		}
		arcsize := binary.LittleEndian.Uint32(buf[pos+12:])
		if arcsize < blobHeaderSize || pos+int(arcsize) > len(buf) {
			return nil, fmt.Errorf("entry %q: blob size %d out of range", e.Name, arcsize)
		}
		a.blobs[i] = buf[pos+blobHeaderSize : pos+int(arcsize) : pos+int(arcsize)]
		pos += int(arcsize)
	}
	if pos != len(buf) {
		return nil, fmt.Errorf("%d trailing bytes after last blob", len(buf)-pos)
	}
	return &a, nil
}

// Extract decompresses entry i's payload.
func (a *Archive) Extract(i int) ([]byte, error) {
	if i < 0 || i >= len(a.Entries) {
		return nil, fmt.Errorf("entry index %d out of range", i)
	}
	data, err := Decompress(a.blobs[i], int(a.Entries[i].Size))
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", a.Entries[i].Name, err)
	}
	return data, nil
}

// Add appends a named payload, compressing it. Names longer than the
// 16-byte field (including its terminator) are rejected.
func (a *Archive) Add(name string, data []byte) error {
	if len(name) >= nameSize {
		return fmt.Errorf("name %q does not fit in %d bytes", name, nameSize)
	}
	a.Entries = append(a.Entries, Entry{
		Name:  name,
		Size:  uint32(len(data)),
		Flags: 1,
	})
	a.blobs = append(a.blobs, Compress(data))
	return nil
}

// Bytes serializes the archive, recomputing every entry's offset and
// packed size.
func (a *Archive) Bytes() ([]byte, error) {
	offset := 32 + len(a.Entries)*entrySize
	for i := range a.Entries {
		a.Entries[i].Offset = uint32(offset)
		a.Entries[i].PackedSize = uint32(blobHeaderSize + len(a.blobs[i]))
		offset += blobHeaderSize + len(a.blobs[i])
	}

	var out bytes.Buffer
	out.Grow(offset)
	out.Write(magic)
	out.Write(a.Head1[:])
	var u32 [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(u32[:], v)
		out.Write(u32[:])
	}
	put(uint32(len(a.Entries)))
	out.Write(a.Head2[:])

	for i := range a.Entries {
		e := &a.Entries[i]
		var name [nameSize]byte
		copy(name[:], e.Name)
		out.Write(name[:])
		put(e.Offset)
		put(e.PackedSize)
		put(e.Size)
		put(e.Flags)
	}
	for i := range a.blobs {
		out.Write(blobMagic)
		put(0)
		put(a.Entries[i].Size)
		put(a.Entries[i].PackedSize)
		out.Write(a.blobs[i])
	}
	return out.Bytes(), nil
}

// cString returns the bytes before the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
