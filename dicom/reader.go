// Package dicom provides DICOM file parsing and manipulation.
//
// This package implements a DICOM file parser following the DICOM standard Part 10.
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html
package dicom

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// BoundsError reports a read that would have run past the end of the
// underlying byte range.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
type BoundsError struct {
	Requested int
	Position  int
	Available int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("read %d bytes at position %d: only %d bytes remain", e.Requested, e.Position, e.Available)
}

// characterSetEncodings maps the Specific Character Set (0008,0005) values
// this module recognizes to their golang.org/x/text encoding. Unrecognized
// character sets fall back to a byte-for-byte codepoint-0-255 mapping.
var characterSetEncodings = map[string]encoding.Encoding{
	"ISO_IR 100":     charmap.ISO8859_1,
	"ISO 2022 IR 100": charmap.ISO8859_1,
	"ISO_IR 101":     charmap.ISO8859_2,
	"ISO_IR 109":     charmap.ISO8859_3,
	"ISO_IR 110":     charmap.ISO8859_4,
	"ISO_IR 144":     charmap.ISO8859_5,
	"ISO_IR 127":     charmap.ISO8859_6,
	"ISO_IR 126":     charmap.ISO8859_7,
	"ISO_IR 138":     charmap.ISO8859_8,
	"ISO_IR 148":     charmap.ISO8859_9,
	"ISO_IR 13":      japanese.ShiftJIS,
	"ISO_IR 149":     korean.EUCKR,
	"GB18030":        simplifiedchinese.GB18030,
	"ISO_IR 192":     unicode.UTF8,
	"UTF-8":          unicode.UTF8,
}

// Reader is a bounds-checked cursor over an immutable, fully-buffered byte
// range with a mutable endianness flag. Unlike an io.Reader-backed stream,
// positions can be snapshotted and rewound, which the shallow/lazy parse
// modes and the streaming driver's checkpoint-on-insufficient-bytes rule
// both require.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.3
type Reader struct {
	data        []byte
	pos         int
	byteOrder   binary.ByteOrder
	charSet     string
}

// NewReader creates a new cursor over data with the specified initial byte order.
func NewReader(data []byte, byteOrder binary.ByteOrder) *Reader {
	return &Reader{
		data:      data,
		byteOrder: byteOrder,
		charSet:   "",
	}
}

// Len returns the total length of the underlying byte range.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of bytes left to read from the current position.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current cursor position.
func (r *Reader) Position() int {
	return r.pos
}

// SetPosition moves the cursor to an absolute position. It does not validate
// that the position is within bounds; the next read will fail with a
// BoundsError if it is not.
func (r *Reader) SetPosition(pos int) {
	r.pos = pos
}

// Rewind moves the cursor back to a previously recorded position, as
// returned by Position. Used by the streaming driver and by speculative
// element-header parses that must back out on a bounds error.
func (r *Reader) Rewind(snapshot int) {
	r.pos = snapshot
}

// Rebind swaps the underlying byte range, preserving position, byte order,
// and active character set. Used by the streaming driver when new chunks
// grow the accumulated buffer or a compaction pass drops its consumed
// prefix; callers that shift the prefix must also call SetPosition to
// re-anchor the cursor.
func (r *Reader) Rebind(data []byte) {
	r.data = data
}

// Advance moves the cursor forward by n bytes without reading them.
func (r *Reader) Advance(n int) {
	r.pos += n
}

// Bytes returns the full underlying byte range, including bytes already
// consumed. Used by lazy-dataset mode to retain a reference for on-demand
// value decoding after the parser has moved past an element.
func (r *Reader) Bytes() []byte {
	return r.data
}

// SetByteOrder changes the byte order for subsequent read operations.
//
// This is used when switching between File Meta Information (always Little
// Endian) and the main dataset (which may use Big Endian depending on
// Transfer Syntax).
func (r *Reader) SetByteOrder(order binary.ByteOrder) {
	r.byteOrder = order
}

// SetCharacterSet updates the active character set used by ReadString. It is
// called whenever (0008,0005) Specific Character Set is decoded.
func (r *Reader) SetCharacterSet(cs string) {
	r.charSet = strings.TrimSpace(cs)
}

func (r *Reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return &BoundsError{Requested: n, Position: r.pos, Available: r.Remaining()}
	}
	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a 16-bit unsigned integer using the current byte order.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.byteOrder.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a 32-bit unsigned integer using the current byte order.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.byteOrder.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads a 64-bit unsigned integer using the current byte order.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.byteOrder.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// PeekUint16 reads a 16-bit unsigned integer without advancing the cursor.
func (r *Reader) PeekUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	return r.byteOrder.Uint16(r.data[r.pos : r.pos+2]), nil
}

// PeekUint32 reads a 32-bit unsigned integer without advancing the cursor.
func (r *Reader) PeekUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	return r.byteOrder.Uint32(r.data[r.pos : r.pos+4]), nil
}

// ReadBytes returns a borrowed slice of exactly n bytes. The caller must not
// mutate the returned slice; it aliases the reader's backing array.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString reads exactly n bytes, strips trailing NUL/space padding, and
// decodes the remainder per the active character set.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.1.2.3
func (r *Reader) ReadString(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	raw, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimRight(string(raw), "\x00 ")
	return decodeCharacterSet(trimmed, r.charSet), nil
}

// decodeCharacterSet converts raw bytes (held in a Go string) to their
// logical text per the named DICOM character set. Unrecognized or empty
// character sets, and decode failures, fall back to byte-for-byte
// codepoint-0-255 mapping (the default ISO-IR 6 / ASCII behavior).
func decodeCharacterSet(raw, charSet string) string {
	primary := charSet
	if idx := strings.IndexByte(charSet, '\\'); idx >= 0 {
		primary = charSet[:idx]
	}
	primary = strings.TrimSpace(primary)
	if enc, ok := characterSetEncodings[primary]; ok {
		if decoded, err := enc.NewDecoder().String(raw); err == nil {
			return decoded
		}
	}
	runes := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		runes[i] = rune(raw[i])
	}
	return string(runes)
}
