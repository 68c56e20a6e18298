// Package dicom provides DICOM file parsing implementation.
package dicom

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/codeninja55/go-dcmx/dicom/element"
	"github.com/codeninja55/go-dcmx/dicom/tag"
	"github.com/codeninja55/go-dcmx/dicom/value"
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// ParseMode controls how much of a file the parser walks and how eagerly it
// materializes large element values.
type ParseMode int

const (
	// ModeFull parses File Meta Information and the entire main dataset,
	// recursively constructing sequences, items, and pixel data fragments.
	ModeFull ParseMode = iota
	// ModeShallow parses only File Meta Information; the main dataset is not read.
	ModeShallow
	// ModeLight parses the entire element structure but does not copy out
	// top-level, defined-length binary values (OB/OW/OD/OF/OL/OV/UN) larger
	// than LightValueThreshold;
	// such values are recorded with a zero-length placeholder and must be
	// re-read from the source by the caller if needed.
	ModeLight
	// ModeLazy parses only element headers (tag/VR/length) up front and
	// defers value decoding to first access. Use ParseFileLazy/
	// ParseReaderLazy/ParseBytesLazy to obtain a *LazyDataSet; ParseFile/
	// ParseReader/ParseBytes reject this mode since they return *DataSet.
	ModeLazy
)

// LightValueThreshold is the byte size above which ModeLight skips copying a
// binary element's value rather than materializing it.
const LightValueThreshold = 4096

// ParseOptions configures a single parse call.
type ParseOptions struct {
	Mode ParseMode
	// TagFilter, if non-nil, restricts which main-dataset elements are kept
	// in the returned dataset. Every element is still parsed (its bytes must
	// be walked to find the next element's offset regardless), but any
	// element whose canonical tag is not in the set is dropped rather than
	// added to the result. File Meta Information is never filtered.
	TagFilter map[tag.Tag]bool
	// OnWarning, if non-nil, is called for each non-fatal condition
	// encountered while reading the main dataset: a value that failed to
	// decode (the element is dropped, parsing continues) or a non-pixel-data
	// element whose declared length exceeds maxNonPixelElementLength (the
	// element's bytes are skipped). Mirrors StreamCallbacks.OnWarning.
	OnWarning func(error)
}

func (o ParseOptions) warn(err error) {
	if o.OnWarning != nil {
		o.OnWarning(err)
	}
}

// maxNonPixelElementLength is the size above which a non-pixel-data
// element's declared length causes the element to be skipped rather than
// decoded.
//
// DICOM Standard Reference: none; this is a defensive cap, not a standard rule.
const maxNonPixelElementLength = 10 * 1024 * 1024

// Parser handles parsing of DICOM files.
//
// The parser reads DICOM files according to DICOM Part 10 File Format:
// 1. 128-byte preamble
// 2. "DICM" prefix (4 bytes)
// 3. File Meta Information (Group 0x0002, always Explicit VR Little Endian)
// 4. Dataset (encoding per Transfer Syntax UID)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7
type Parser struct {
	reader       *Reader
	ts           *TransferSyntax
	bufferedElem *element.Element // Element read ahead during File Meta parsing
	opts         ParseOptions
}

// ParseFile reads and parses a DICOM file from the filesystem.
//
// Example:
//
//	ds, err := dicom.ParseFile("image.dcm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Parsed %d elements\n", ds.Len())
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7
func ParseFile(path string, opts ...ParseOptions) (*DataSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, opts...)
}

// ParseReader reads and parses a complete DICOM file from an io.Reader.
//
// The input is fully buffered before parsing begins: bounds-checked
// peek/seek/rewind over a byte slice is what makes sequence recursion,
// speculative item-delimiter lookahead, and (for streaming input) checkpoint
// semantics tractable.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7
func ParseReader(r io.Reader, opts ...ParseOptions) (*DataSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseBytes(data, opts...)
}

// ParseBytes parses a complete, already-buffered DICOM file.
func ParseBytes(data []byte, opts ...ParseOptions) (*DataSet, error) {
	options := ParseOptions{Mode: ModeFull}
	if len(opts) > 0 {
		options = opts[0]
	}

	reader := NewReader(data, binary.LittleEndian)
	parser := &Parser{
		reader: reader,
		opts:   options,
	}

	if err := parser.readPreamble(); err != nil {
		return nil, fmt.Errorf("invalid DICOM file: %w", err)
	}

	metaInfo, err := parser.readFileMetaInformation()
	if err != nil {
		return nil, fmt.Errorf("failed to read File Meta Information: %w", err)
	}

	if options.Mode == ModeShallow {
		return metaInfo, nil
	}
	if options.Mode == ModeLazy {
		return nil, fmt.Errorf("dicom: ParseBytes does not support ModeLazy; use ParseBytesLazy")
	}

	ts, err := parser.detectTransferSyntax(metaInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to detect transfer syntax: %w", err)
	}
	parser.ts = ts

	parser.reader.SetByteOrder(ts.ByteOrder)

	// Deflated transfer syntaxes use raw DEFLATE (RFC 1951), not zlib
	// (RFC 1950). File Meta Information is never compressed; only the bytes
	// from the current position onward are.
	if ts.Deflated {
		remaining, err := parser.reader.ReadBytes(parser.reader.Remaining())
		if err != nil {
			return nil, fmt.Errorf("failed to read deflated dataset bytes: %w", err)
		}
		flateReader := flate.NewReader(bytes.NewReader(remaining))
		defer flateReader.Close()
		decompressed, err := io.ReadAll(flateReader)
		if err != nil {
			return nil, fmt.Errorf("failed to inflate dataset: %w", err)
		}
		parser.reader = NewReader(decompressed, ts.ByteOrder)
	}

	mainDS, err := parser.readDataset()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	for _, elem := range metaInfo.Elements() {
		mainDS.Add(elem)
	}

	return mainDS, nil
}

// readPreamble reads and validates the 128-byte preamble and "DICM" prefix.
//
// A valid DICOM file must:
//   - Start with exactly 128 bytes (preamble content is not validated)
//   - Followed by the ASCII string "DICM" (4 bytes)
//
// Returns ErrInvalidPreamble if the prefix is not "DICM" or if the file is truncated.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func (p *Parser) readPreamble() error {
	if _, err := p.reader.ReadBytes(128); err != nil {
		return fmt.Errorf("%w: file truncated before DICM prefix: %v", ErrInvalidPreamble, err)
	}

	prefix, err := p.reader.ReadString(4)
	if err != nil {
		return fmt.Errorf("%w: file truncated at DICM prefix: %v", ErrInvalidPreamble, err)
	}

	if prefix != "DICM" {
		return fmt.Errorf("%w: expected 'DICM', got %q", ErrInvalidPreamble, prefix)
	}

	return nil
}

// readFileMetaInformation reads the File Meta Information (Group 0x0002).
//
// File Meta Information is always encoded as Explicit VR Little Endian,
// regardless of the transfer syntax used for the main dataset. It contains
// (0002,0000) File Meta Information Group Length, (0002,0010) Transfer
// Syntax UID, and related metadata.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func (p *Parser) readFileMetaInformation() (*DataSet, error) {
	fileMetaTS := &TransferSyntax{
		ExplicitVR: true,
		ByteOrder:  binary.LittleEndian,
	}

	elemParser := NewElementParser(p.reader, fileMetaTS)
	ds := NewDataSet()

	firstElem, err := elemParser.ReadElement()
	if err != nil {
		return nil, fmt.Errorf("failed to read first File Meta element: %w", err)
	}
	ds.Add(firstElem)

	groupLengthTag := tag.New(0x0002, 0x0000)
	var fileMetaLength uint32
	hasGroupLength := false

	if firstElem.Tag().Equals(groupLengthTag) {
		if intVal, ok := firstElem.Value().(*value.IntValue); ok {
			intVals := intVal.Ints()
			if len(intVals) > 0 {
				fileMetaLength = uint32(intVals[0])
				hasGroupLength = true
			}
		}
	}

	if hasGroupLength && fileMetaLength > 0 {
		startPos := p.reader.Position()
		endPos := startPos + int(fileMetaLength)

		for p.reader.Position() < endPos {
			elem, err := elemParser.ReadElement()
			if err != nil {
				return nil, fmt.Errorf("failed to read File Meta element: %w", err)
			}
			ds.Add(elem)
		}
	} else {
		// No usable group length: read until the group number changes.
		for p.reader.Remaining() > 0 {
			snapshot := p.reader.Position()
			groupPeek, err := p.reader.PeekUint16()
			if err != nil {
				break
			}
			if groupPeek != tag.MetadataGroup {
				break
			}
			_ = snapshot

			elem, err := elemParser.ReadElement()
			if err != nil {
				return nil, fmt.Errorf("failed to read File Meta element: %w", err)
			}
			ds.Add(elem)
		}
	}

	return ds, nil
}

// detectTransferSyntax extracts the Transfer Syntax UID from File Meta Information
// and returns the corresponding TransferSyntax configuration.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_10
func (p *Parser) detectTransferSyntax(metaInfo *DataSet) (*TransferSyntax, error) {
	tsTag := tag.New(0x0002, 0x0010)
	elem, err := metaInfo.Get(tsTag)
	if err != nil {
		return nil, fmt.Errorf("%w: Transfer Syntax UID not found in File Meta Information", ErrMissingTransferSyntax)
	}

	tsUID := elem.Value().String()
	if tsUID == "" {
		return nil, fmt.Errorf("%w: Transfer Syntax UID is empty", ErrMissingTransferSyntax)
	}

	if ts, ok := transferSyntaxRegistry[tsUID]; ok {
		result := *ts
		result.UID = tsUID
		return &result, nil
	}

	return nil, fmt.Errorf("%w: Transfer Syntax UID %q not supported", ErrInvalidTransferSyntax, tsUID)
}

// transferSyntaxRegistry maps known Transfer Syntax UIDs to their encoding
// properties. Compressed entries leave pixel data as extracted fragments;
// decompression is the caller's responsibility via a registered decoder.
var transferSyntaxRegistry = map[string]*TransferSyntax{
	"1.2.840.10008.1.2": {ExplicitVR: false, ByteOrder: binary.LittleEndian},
	"1.2.840.10008.1.2.1": {ExplicitVR: true, ByteOrder: binary.LittleEndian},
	"1.2.840.10008.1.2.2": {ExplicitVR: true, ByteOrder: binary.BigEndian},
	"1.2.840.10008.1.2.1.99": {ExplicitVR: true, ByteOrder: binary.LittleEndian, Deflated: true},
	"1.2.840.10008.1.2.5":     {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.50":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.51":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.57":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.70":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.90":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.91":  {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.201": {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
	"1.2.840.10008.1.2.4.203": {ExplicitVR: true, ByteOrder: binary.LittleEndian, Compressed: true},
}

// readDataset reads the main dataset elements using the detected transfer syntax.
//
// Reading stops cleanly when the buffered input is exhausted at an element
// boundary. A failure reading an element's header (tag, VR, or length) is
// fatal for the whole parse, since the cursor can no longer be trusted to
// land on the next element boundary. A failure decoding an element's value
// is localized: the element's declared bytes are skipped and parsing
// continues with the next element, reported via ParseOptions.OnWarning.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func (p *Parser) readDataset() (*DataSet, error) {
	elemParser := NewElementParser(p.reader, p.ts)
	ds := NewDataSet()

	if p.bufferedElem != nil {
		ds.Add(p.bufferedElem)
		p.bufferedElem = nil
	}

	for p.reader.Remaining() > 0 {
		elem, err := p.readDatasetElement(elemParser)
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset element: %w", err)
		}
		if elem == nil {
			continue
		}

		if elem.Tag().Equals(tag.New(0x0008, 0x0005)) {
			if sv, ok := elem.Value().(*value.StringValue); ok && len(sv.Strings()) > 0 {
				p.reader.SetCharacterSet(sv.Strings()[0])
			}
		}

		if p.opts.TagFilter != nil && !p.opts.TagFilter[elem.Tag()] {
			continue
		}
		ds.Add(elem)
	}

	return ds, nil
}

// readDatasetElement reads one top-level element's header and value.
//
// A nil element with a nil error means the element was dropped (oversized,
// or a localized value-decode failure) and the caller should move on to the
// next one; the cursor is already positioned past the dropped element's
// bytes. A non-nil error means the header itself could not be read and the
// dataset cannot be parsed any further.
func (p *Parser) readDatasetElement(elemParser *ElementParser) (*element.Element, error) {
	t, v, length, err := readElementHeader(elemParser, p.reader, p.ts)
	if err != nil {
		return nil, err
	}

	isPixelData := t.Group == 0x7FE0 && t.Element == 0x0010
	if !isPixelData && length != 0xFFFFFFFF && length > maxNonPixelElementLength {
		if _, err := p.reader.ReadBytes(int(length)); err != nil {
			return nil, fmt.Errorf("failed to skip oversized element %s: %w", t, err)
		}
		p.opts.warn(fmt.Errorf("%w: tag %s declared %d bytes", ErrElementTooLarge, t, length))
		return nil, nil
	}

	if p.opts.Mode == ModeLight && length != 0xFFFFFFFF && length > LightValueThreshold && v.IsBinaryType() {
		if _, err := p.reader.ReadBytes(int(length)); err != nil {
			return nil, fmt.Errorf("failed to skip binary value for tag %s: %w", t, err)
		}
		return elemParser.readValueAndBuild(t, v, 0)
	}

	valueStart := p.reader.Position()
	elem, err := elemParser.readValueAndBuild(t, v, length)
	if err == nil {
		return elem, nil
	}

	if length == 0xFFFFFFFF {
		// Undefined-length sequences and pixel data carry no declared byte
		// count to resync on; a decode failure here cannot be localized.
		return nil, err
	}

	p.reader.SetPosition(valueStart)
	if _, serr := p.reader.ReadBytes(int(length)); serr != nil {
		return nil, fmt.Errorf("failed to resync after value decode error for tag %s: %w", t, serr)
	}
	p.opts.warn(fmt.Errorf("%w: tag %s: %v", ErrValueDecode, t, err))
	return nil, nil
}

// readElementHeader reads just a tag/VR/length triple at the reader's
// current position and leaves the cursor at the start of the value,
// without decoding it. Shared by lazy-dataset parsing and the streaming
// driver's Finalize-time degraded-truncation path.
func readElementHeader(elemParser *ElementParser, reader *Reader, ts *TransferSyntax) (tag.Tag, vr.VR, uint32, error) {
	t, err := elemParser.readTag()
	if err != nil {
		return tag.Tag{}, 0, 0, err
	}

	var v vr.VR
	var length uint32
	if ts.ExplicitVR {
		v, err = elemParser.readVRExplicit()
		if err != nil {
			return tag.Tag{}, 0, 0, err
		}
		length, err = elemParser.readLength(v)
		if err != nil {
			return tag.Tag{}, 0, 0, err
		}
	} else {
		length, err = reader.ReadUint32()
		if err != nil {
			return tag.Tag{}, 0, 0, err
		}
		v, err = elemParser.readVRImplicit(t, length)
		if err != nil {
			return tag.Tag{}, 0, 0, err
		}
	}
	return t, v, length, nil
}

// TransferSyntax describes the encoding of a DICOM dataset.
type TransferSyntax struct {
	UID        string           // Transfer Syntax UID
	ExplicitVR bool             // true = Explicit VR, false = Implicit VR
	ByteOrder  binary.ByteOrder // Little or Big Endian
	Compressed bool             // true if pixel data is compressed
	Deflated   bool             // true for deflated transfer syntax
}
