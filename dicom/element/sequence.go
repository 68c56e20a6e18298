package element

import (
	"fmt"
	"strings"
	"sync"

	"github.com/codeninja55/go-dcmx/dicom/tag"
	"github.com/codeninja55/go-dcmx/dicom/value"
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// Item is a single sequence item: an ordered, tag-keyed sub-dataset.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
type Item struct {
	elements map[tag.Tag]*Element
}

// NewItem creates an empty item. An item with no elements (an "empty item")
// is legal per the standard.
func NewItem() *Item {
	return &Item{elements: make(map[tag.Tag]*Element)}
}

// Add inserts or replaces an element within the item.
func (it *Item) Add(e *Element) {
	it.elements[e.Tag()] = e
}

// Get retrieves an element by tag.
func (it *Item) Get(t tag.Tag) (*Element, bool) {
	e, ok := it.elements[t]
	return e, ok
}

// Len returns the number of elements in the item.
func (it *Item) Len() int {
	return len(it.elements)
}

// Elements returns all elements of the item in unspecified order.
func (it *Item) Elements() map[tag.Tag]*Element {
	return it.elements
}

// SequenceValue is the value of an SQ element: an ordered list of items.
//
// This is the real, recursively-constructed replacement for the flattened
// byte-blob placeholder a skip-only sequence parser would produce.
type SequenceValue struct {
	items []*Item
}

// NewSequenceValue wraps a parsed list of items as an SQ value.
func NewSequenceValue(items []*Item) *SequenceValue {
	return &SequenceValue{items: items}
}

// VR always returns SQ.
func (s *SequenceValue) VR() vr.VR {
	return vr.SequenceOfItems
}

// Items returns the sequence's items in document order.
func (s *SequenceValue) Items() []*Item {
	return s.items
}

// Bytes is not meaningful for a structured sequence value; callers that need
// the wire encoding use the writer, which serializes items recursively
// rather than reading a flat byte buffer back from the value.
func (s *SequenceValue) Bytes() []byte {
	return nil
}

// String renders a short human-readable summary of the sequence.
func (s *SequenceValue) String() string {
	var sb strings.Builder
	sb.WriteString("Sequence of ")
	if len(s.items) == 1 {
		sb.WriteString("1 item")
	} else {
		sb.WriteString(itoa(len(s.items)))
		sb.WriteString(" items")
	}
	return sb.String()
}

// Equals compares sequences item-by-item, and within each item, element-by-element.
func (s *SequenceValue) Equals(other value.Value) bool {
	o, ok := other.(*SequenceValue)
	if !ok || len(s.items) != len(o.items) {
		return false
	}
	for i, item := range s.items {
		oi := o.items[i]
		if item.Len() != oi.Len() {
			return false
		}
		for t, e := range item.elements {
			oe, ok := oi.elements[t]
			if !ok || !e.Equals(oe) {
				return false
			}
		}
	}
	return true
}

// Fragment is one raw compressed chunk of encapsulated pixel data, together
// with its byte offset within the concatenated fragment stream (excluding
// item headers), matching the teacher's pixel.Fragment shape.
type Fragment struct {
	Data   []byte
	Offset int
}

// EncapsulatedValue is the value of a pixel-data element whose length is
// undefined (0xFFFFFFFF): a Basic Offset Table plus an ordered list of
// compressed fragments. Frame/fragment grouping and decompression are left
// to an external codec; this type only carries the extracted byte ranges.
type EncapsulatedValue struct {
	pixelVR          vr.VR
	basicOffsetTable []uint32
	fragments        []Fragment
}

// NewEncapsulatedValue wraps extracted Basic Offset Table offsets and
// fragments as a pixel-data value.
func NewEncapsulatedValue(pixelVR vr.VR, bot []uint32, fragments []Fragment) *EncapsulatedValue {
	return &EncapsulatedValue{pixelVR: pixelVR, basicOffsetTable: bot, fragments: fragments}
}

// VR returns the pixel data element's VR as declared in the stream (OB or OW).
func (e *EncapsulatedValue) VR() vr.VR {
	return e.pixelVR
}

// BasicOffsetTable returns the frame-boundary offsets, or nil if the table was empty.
func (e *EncapsulatedValue) BasicOffsetTable() []uint32 {
	return e.basicOffsetTable
}

// Fragments returns the extracted fragment byte ranges, in stream order.
func (e *EncapsulatedValue) Fragments() []Fragment {
	return e.fragments
}

// Bytes concatenates every fragment's data, ignoring frame boundaries.
func (e *EncapsulatedValue) Bytes() []byte {
	total := 0
	for _, f := range e.fragments {
		total += len(f.Data)
	}
	out := make([]byte, 0, total)
	for _, f := range e.fragments {
		out = append(out, f.Data...)
	}
	return out
}

// String renders a short human-readable summary.
func (e *EncapsulatedValue) String() string {
	return "EncapsulatedPixelData{" + itoa(len(e.fragments)) + " fragments}"
}

// Equals compares fragment byte contents and the Basic Offset Table.
func (e *EncapsulatedValue) Equals(other value.Value) bool {
	o, ok := other.(*EncapsulatedValue)
	if !ok || len(e.fragments) != len(o.fragments) || len(e.basicOffsetTable) != len(o.basicOffsetTable) {
		return false
	}
	for i, off := range e.basicOffsetTable {
		if o.basicOffsetTable[i] != off {
			return false
		}
	}
	for i, f := range e.fragments {
		if string(f.Data) != string(o.fragments[i].Data) {
			return false
		}
	}
	return true
}

// PixelDecoderFunc decompresses one encapsulated pixel-data frame for a given
// transfer syntax. It is the core's only seam into an external pixel codec:
// the Element Engine extracts fragments and the Basic Offset Table, but never
// decodes or renders them itself.
type PixelDecoderFunc func(fragments []byte, bot []uint32) ([]byte, error)

var (
	decoderRegistry   = make(map[string]PixelDecoderFunc)
	decoderRegistryMu sync.RWMutex
)

// RegisterPixelDecoder installs a decoder for a transfer syntax UID. A
// decoder already registered for that UID is replaced. Safe for concurrent
// use.
func RegisterPixelDecoder(transferSyntaxUID string, fn PixelDecoderFunc) {
	decoderRegistryMu.Lock()
	defer decoderRegistryMu.Unlock()
	decoderRegistry[transferSyntaxUID] = fn
}

// UnregisterPixelDecoder removes the decoder registered for a transfer
// syntax UID, if any. Primarily useful for testing.
func UnregisterPixelDecoder(transferSyntaxUID string) {
	decoderRegistryMu.Lock()
	defer decoderRegistryMu.Unlock()
	delete(decoderRegistry, transferSyntaxUID)
}

// Decode looks up the decoder registered for transferSyntaxUID and runs it
// against this value's concatenated fragment bytes and Basic Offset Table.
// Returns an error if no decoder is registered; the core never falls back to
// rendering or transcoding pixel data itself.
func (e *EncapsulatedValue) Decode(transferSyntaxUID string) ([]byte, error) {
	decoderRegistryMu.RLock()
	fn, ok := decoderRegistry[transferSyntaxUID]
	decoderRegistryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no pixel decoder registered for transfer syntax %q", transferSyntaxUID)
	}
	return fn(e.Bytes(), e.basicOffsetTable)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
