// Package dicom provides DICOM file parsing and manipulation.
package dicom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/codeninja55/go-dcmx/dicom/element"
	"github.com/codeninja55/go-dcmx/dicom/tag"
	"github.com/codeninja55/go-dcmx/dicom/value"
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// StreamState names a position in the streaming driver's state machine.
//
// Unstarted -> Detecting -> Parsing -> Draining -> Done. Done is terminal;
// a new StreamingParser must be constructed to parse another stream.
type StreamState int

const (
	// StateUnstarted is the state before the first chunk is accepted.
	StateUnstarted StreamState = iota
	// StateDetecting is waiting for enough bytes to decide Part-10 vs. bare dataset.
	StateDetecting
	// StateParsing is emitting elements as their bytes become available.
	StateParsing
	// StateDraining is the post-Finalize pass that truncates or drops
	// whatever remains incomplete in the buffer.
	StateDraining
	// StateDone is terminal.
	StateDone
)

func (s StreamState) String() string {
	switch s {
	case StateUnstarted:
		return "Unstarted"
	case StateDetecting:
		return "Detecting"
	case StateParsing:
		return "Parsing"
	case StateDraining:
		return "Draining"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// minDetectionBytes is the smallest buffer size at which Part-10 detection
// is unambiguous: 128-byte preamble + 4-byte "DICM" prefix.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
const minDetectionBytes = 132

// compactThresholdBytes and compactThresholdFraction gate when the
// consumed prefix of the streaming buffer is dropped: the prefix must
// exceed this many bytes AND at least this fraction of the buffer.
const (
	compactThresholdBytes    = 64 * 1024
	compactThresholdFraction = 0.5
)

// truncatableBinaryCap is the size above which a binary value (OB/OW/OF/
// OD/OL/UN) is still permitted to end incompletely on Finalize rather than
// being emitted truncated, per SPEC_FULL §4.8.
const truncatableBinaryCap = 1024

// DefaultMaxBufferedBytes is the default ceiling on the streaming driver's
// accumulated buffer before LimitExceeded is reported.
const DefaultMaxBufferedBytes = 10 * 1024 * 1024

// DefaultMaxElementsPerCall is the default bound on how many elements a
// single ProcessChunk/Finalize call will emit before returning control to
// the caller, keeping per-call CPU bounded.
const DefaultMaxElementsPerCall = 1000

// StreamConfig configures a StreamingParser.
type StreamConfig struct {
	// MaxBufferedBytes bounds the accumulated, not-yet-compacted buffer.
	// Zero selects DefaultMaxBufferedBytes.
	MaxBufferedBytes int
	// MaxElementsPerCall bounds how many elements are emitted from a single
	// ProcessChunk or Finalize call. Zero selects DefaultMaxElementsPerCall.
	MaxElementsPerCall int
}

func (c StreamConfig) normalized() StreamConfig {
	if c.MaxBufferedBytes <= 0 {
		c.MaxBufferedBytes = DefaultMaxBufferedBytes
	}
	if c.MaxElementsPerCall <= 0 {
		c.MaxElementsPerCall = DefaultMaxElementsPerCall
	}
	return c
}

// StreamCallbacks are invoked synchronously by ProcessChunk and Finalize on
// the caller's goroutine. Implementations must not re-enter the
// StreamingParser they were invoked from.
type StreamCallbacks struct {
	// OnElement is called once per fully decoded top-level element, in the
	// byte order the elements appear in the stream. Sequence items are
	// delivered as a complete sub-tree inside the element's value, never
	// interleaved with siblings.
	OnElement func(*element.Element)
	// OnWarning reports a non-fatal condition, such as a value truncated
	// during Finalize. Parsing continues.
	OnWarning func(error)
	// OnError reports a fatal condition (MalformedHeader or LimitExceeded).
	// After OnError fires the driver transitions to StateDone.
	OnError func(error)
}

func (cb StreamCallbacks) warn(err error) {
	if cb.OnWarning != nil {
		cb.OnWarning(err)
	}
}

func (cb StreamCallbacks) fail(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func (cb StreamCallbacks) emit(e *element.Element) {
	if cb.OnElement != nil {
		cb.OnElement(e)
	}
}

// StreamingParser is a chunked, single-threaded-cooperative DICOM parser.
// It accepts byte chunks in any grouping via ProcessChunk and emits fully
// decoded elements through StreamCallbacks as soon as their bytes are
// available, buffering and checkpointing across chunk boundaries as
// needed.
//
// The entire resumable state is: the accumulated buffer, the cursor
// position, and the detected transfer syntax. No goroutines or timers are
// involved; cancellation is simply the caller ceasing to call ProcessChunk
// and dropping the parser.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7
type StreamingParser struct {
	cfg StreamConfig
	cb  StreamCallbacks

	data []byte
	pos  int

	state StreamState
	ts    *TransferSyntax

	reader *Reader
	elemP  *ElementParser

	elementsThisCall int
}

// NewStreamingParser creates a StreamingParser with the given configuration
// and callbacks. Zero-valued StreamConfig fields take their documented
// defaults.
func NewStreamingParser(cfg StreamConfig, cb StreamCallbacks) *StreamingParser {
	return &StreamingParser{
		cfg:   cfg.normalized(),
		cb:    cb,
		state: StateUnstarted,
	}
}

// State returns the driver's current position in the state machine.
func (sp *StreamingParser) State() StreamState {
	return sp.state
}

// ProcessChunk appends chunk to the internal buffer and attempts to decode
// and emit as many elements as the buffered bytes and MaxElementsPerCall
// allow. It returns immediately (without error) when the buffer is
// exhausted at an element boundary and more data is needed; callers resume
// by supplying the next chunk. A non-nil return indicates a fatal,
// terminal condition (the same error already delivered to OnError).
func (sp *StreamingParser) ProcessChunk(chunk []byte) error {
	if sp.state == StateDone {
		return fmt.Errorf("streaming parser: ProcessChunk called after Done")
	}
	if sp.state == StateUnstarted {
		sp.state = StateDetecting
	}

	sp.growBuffer(chunk)
	if len(sp.data) > sp.cfg.MaxBufferedBytes {
		err := fmt.Errorf("%w: buffered %d bytes exceeds maximum %d", ErrLimitExceeded, len(sp.data), sp.cfg.MaxBufferedBytes)
		sp.cb.fail(err)
		sp.state = StateDone
		return err
	}

	sp.elementsThisCall = 0
	if err := sp.pump(false); err != nil {
		return err
	}

	sp.compact()
	return nil
}

// Finalize signals end of input: no more chunks will arrive. It attempts
// one last parse pass with degraded handling for a non-sequence,
// non-pixel-data element whose bytes are incomplete (truncate and warn),
// then transitions to StateDone. After Finalize returns, the
// StreamingParser must not be reused.
func (sp *StreamingParser) Finalize() error {
	if sp.state == StateDone {
		return nil
	}
	if sp.state == StateUnstarted || sp.state == StateDetecting {
		if len(sp.data) > 0 && sp.reader == nil {
			// Not enough bytes were ever buffered to decide Part-10 vs.
			// bare dataset; per §4.11, finalize with any data forces a
			// non-Part-10 interpretation.
			sp.beginImplicitLE()
		} else if sp.reader == nil {
			sp.state = StateDone
			return nil
		}
	}

	sp.state = StateParsing
	sp.elementsThisCall = 0
	_ = sp.pump(false)

	sp.state = StateDraining
	sp.elementsThisCall = 0
	if err := sp.pump(true); err != nil {
		return err
	}

	if sp.reader != nil && sp.reader.Remaining() > 0 {
		sp.cb.warn(&BoundsError{Requested: sp.reader.Remaining(), Position: sp.reader.Position(), Available: 0})
	}

	sp.state = StateDone
	return nil
}

// growBuffer appends chunk to the accumulated buffer. The buffer is grown
// with 1.5x headroom over its previous capacity so repeated small chunks
// do not reallocate on every call.
func (sp *StreamingParser) growBuffer(chunk []byte) {
	needed := len(sp.data) + len(chunk)
	if cap(sp.data) < needed {
		newCap := cap(sp.data) + cap(sp.data)/2
		if newCap < needed {
			newCap = needed
		}
		grown := make([]byte, len(sp.data), newCap)
		copy(grown, sp.data)
		sp.data = grown
	}
	sp.data = append(sp.data, chunk...)
	if sp.reader != nil {
		sp.reader.Rebind(sp.data)
	}
}

// compact drops the consumed prefix of the buffer once it exceeds both the
// absolute and fractional thresholds, so long-running streams don't retain
// every byte ever seen.
func (sp *StreamingParser) compact() {
	if sp.pos < compactThresholdBytes {
		return
	}
	if float64(sp.pos) < float64(len(sp.data))*compactThresholdFraction {
		return
	}
	tail := make([]byte, len(sp.data)-sp.pos)
	copy(tail, sp.data[sp.pos:])
	sp.data = tail
	sp.pos = 0
	if sp.reader != nil {
		sp.reader.Rebind(sp.data)
		sp.reader.SetPosition(0)
	}
}

// pump runs the decode loop for the current state, emitting elements
// until the buffer is exhausted at a boundary, MaxElementsPerCall is hit,
// or (in Detecting) not enough bytes have arrived to classify the stream.
func (sp *StreamingParser) pump(final bool) error {
	if sp.state == StateDetecting || sp.state == StateUnstarted {
		if len(sp.data) < minDetectionBytes {
			return nil
		}
		if err := sp.detect(); err != nil {
			var boundsErr *BoundsError
			if errors.As(err, &boundsErr) {
				// The meta group isn't fully buffered yet; stay in
				// Detecting and retry from scratch once more bytes
				// arrive. Nothing has been emitted for this attempt.
				return nil
			}
			sp.cb.fail(err)
			sp.state = StateDone
			return err
		}
		sp.state = StateParsing
	}

	for sp.elementsThisCall < sp.cfg.MaxElementsPerCall {
		snapshot := sp.pos
		elem, err := sp.tryReadOne(final)
		if err != nil {
			return err
		}
		if elem == nil {
			// Insufficient bytes for the current element: rewind and wait
			// for the next chunk (or, on final, stop draining).
			sp.pos = snapshot
			sp.reader.Rewind(snapshot)
			return nil
		}
		sp.pos = sp.reader.Position()
		sp.elementsThisCall++
		sp.cb.emit(elem)
	}
	return nil
}

// detect classifies the buffered bytes as Part-10 (preamble + DICM + File
// Meta Information) or a bare implicit-VR little-endian dataset, per
// SPEC_FULL §4.3. On success it leaves sp.reader positioned at the start
// of the main dataset with sp.ts set.
func (sp *StreamingParser) detect() error {
	if string(sp.data[128:132]) == "DICM" {
		return sp.detectPart10()
	}
	sp.beginImplicitLE()
	return nil
}

// beginImplicitLE treats the entire buffer as a bare implicit-VR
// little-endian dataset starting at offset 0, the fallback path when no
// Part-10 preamble is present (SPEC_FULL §4.3) or when Finalize forces a
// decision before 132 bytes ever arrived.
func (sp *StreamingParser) beginImplicitLE() {
	sp.ts = &TransferSyntax{ExplicitVR: false, ByteOrder: binary.LittleEndian}
	sp.reader = NewReader(sp.data, binary.LittleEndian)
	sp.elemP = NewElementParser(sp.reader, sp.ts)
	sp.pos = 0
}

// detectPart10 parses the File Meta Information group (always explicit-VR
// little-endian) to recover the Transfer Syntax UID, capped at 20
// iterations per SPEC_FULL §4.3. If the meta group is not yet fully
// buffered, this returns a *BoundsError that the caller treats as
// "need more data" by rewinding to offset 0 and trying again next chunk.
func (sp *StreamingParser) detectPart10() error {
	fileMetaTS := &TransferSyntax{ExplicitVR: true, ByteOrder: binary.LittleEndian}
	r := NewReader(sp.data, binary.LittleEndian)
	if _, err := r.ReadBytes(132); err != nil {
		return err
	}
	metaParser := NewElementParser(r, fileMetaTS)

	// Buffer decoded meta elements locally rather than emitting them as
	// they're read: this scan is speculative and restarts from offset 0
	// on every retry until the whole meta group is buffered, so emitting
	// eagerly would deliver the same elements more than once.
	var metaElems []*element.Element
	var tsUID string
	for i := 0; i < 20; i++ {
		groupPeek, err := r.PeekUint16()
		if err != nil {
			return err
		}
		if groupPeek != tag.MetadataGroup {
			break
		}
		elem, err := metaParser.ReadElement()
		if err != nil {
			return err
		}
		metaElems = append(metaElems, elem)
		if elem.Tag().Equals(tag.New(0x0002, 0x0010)) {
			tsUID = elem.Value().String()
			break
		}
	}

	if tsUID == "" {
		return &BoundsError{Requested: 0, Position: r.Position(), Available: r.Remaining()}
	}

	ts, ok := transferSyntaxRegistry[tsUID]
	if !ok {
		return fmt.Errorf("%w: Transfer Syntax UID %q not supported", ErrInvalidTransferSyntax, tsUID)
	}
	resolved := *ts
	resolved.UID = tsUID
	sp.ts = &resolved

	sp.reader = NewReader(sp.data, resolved.ByteOrder)
	sp.reader.SetPosition(r.Position())
	sp.elemP = NewElementParser(sp.reader, sp.ts)
	sp.pos = sp.reader.Position()

	for _, elem := range metaElems {
		sp.cb.emit(elem)
	}
	return nil
}

// tryReadOne attempts to decode exactly one top-level element at the
// current cursor. A nil, nil return means the buffered bytes were
// insufficient and the caller should rewind and wait for more (unless
// final is set, in which case insufficiency means drain is complete or a
// degraded/truncated element is produced instead).
func (sp *StreamingParser) tryReadOne(final bool) (*element.Element, error) {
	if sp.reader.Remaining() < 8 {
		return nil, nil
	}

	snapshot := sp.reader.Position()
	elem, err := sp.elemP.ReadElement()
	if err == nil {
		if elem.Tag().Equals(tag.New(0x0008, 0x0005)) {
			if sv, ok := elem.Value().(*value.StringValue); ok && len(sv.Strings()) > 0 {
				sp.reader.SetCharacterSet(sv.Strings()[0])
			}
		}
		return elem, nil
	}

	var boundsErr *BoundsError
	var seqErr *SequenceBoundsError
	insufficient := errors.As(err, &boundsErr) || errors.As(err, &seqErr) || errors.Is(err, io.ErrUnexpectedEOF)
	if !insufficient {
		// A header-level structural error (bad VR, corrupt tag): fatal for
		// batch parsing, but in streaming mode this localizes to dropping
		// one element attempt's worth of bytes only when draining; while
		// still accumulating, treat it the same as "wait for more" since
		// more bytes may resolve an apparent corruption that was really
		// just a mid-value truncation artifact.
		if !final {
			return nil, nil
		}
	}

	sp.reader.Rewind(snapshot)
	if !final {
		return nil, nil
	}

	return sp.finalTruncate(snapshot)
}

// finalTruncate implements the Finalize-only degraded path (SPEC_FULL
// §4.8, §9 Open Question 1): if the element header fits but its value
// does not, a non-sequence, non-pixel-data, non-large-binary element is
// emitted with its length truncated to the bytes actually available, and
// a TruncatedValueError is reported via OnWarning. Sequences, pixel data,
// and large (>1KB) binary values are left unread and draining stops.
func (sp *StreamingParser) finalTruncate(headerStart int) (*element.Element, error) {
	sp.reader.SetPosition(headerStart)

	t, v, length, err := sp.peekHeader()
	if err != nil {
		// Header itself doesn't fit even at end of stream: nothing more
		// can be recovered from this position.
		sp.reader.SetPosition(headerStart)
		return nil, nil
	}

	available := sp.reader.Remaining()
	if length != 0xFFFFFFFF && int(length) <= available {
		sp.reader.SetPosition(headerStart)
		elem, err := sp.elemP.ReadElement()
		if err != nil {
			return nil, nil
		}
		return elem, nil
	}

	isPixelData := t.Group == 0x7FE0 && t.Element == 0x0010
	if v == vr.SequenceOfItems || length == 0xFFFFFFFF || isPixelData {
		sp.reader.SetPosition(headerStart)
		return nil, nil
	}
	if v.IsBinaryType() && int(length) > truncatableBinaryCap {
		sp.reader.SetPosition(headerStart)
		return nil, nil
	}

	truncatedLen := uint32(available)
	elem, derr := sp.elemP.readValueAndBuild(t, v, truncatedLen)
	if derr != nil {
		sp.reader.SetPosition(headerStart)
		return nil, nil
	}
	sp.cb.warn(&TruncatedValueError{Tag: t.Canonical(), Requested: int(length), Available: available})
	return elem, nil
}

// peekHeader reads a full element header (tag + VR/length) without
// reading its value, leaving the cursor just past the header. The caller
// is responsible for repositioning the cursor if the header itself turns
// out to be unusable.
func (sp *StreamingParser) peekHeader() (tag.Tag, vr.VR, uint32, error) {
	return readElementHeader(sp.elemP, sp.reader, sp.ts)
}

// StreamFromReader drives a StreamingParser over an io.Reader, reading
// chunkSize bytes at a time until EOF, then calling Finalize. It is the
// "adapter over a byte-readable stream" named in SPEC_FULL §6; chunked
// async sources should drive ProcessChunk/Finalize directly instead of
// using this adapter.
func StreamFromReader(r io.Reader, chunkSize int, cfg StreamConfig, cb StreamCallbacks) error {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	sp := NewStreamingParser(cfg, cb)
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if perr := sp.ProcessChunk(chunk); perr != nil {
				return perr
			}
		}
		if err == io.EOF {
			return sp.Finalize()
		}
		if err != nil {
			return err
		}
	}
}
