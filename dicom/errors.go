// Package dicom provides DICOM file parsing and manipulation.
package dicom

import "errors"

// ErrInvalidPreamble indicates the file doesn't have a valid DICOM preamble.
// A valid DICOM file must have 128 bytes followed by "DICM" (ASCII).
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
var ErrInvalidPreamble = errors.New("invalid DICOM preamble: missing or invalid DICM prefix")

// ErrInvalidVR indicates an invalid or unknown VR was encountered.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var ErrInvalidVR = errors.New("invalid or unknown VR")

// ErrInvalidTag indicates a malformed tag was encountered.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
var ErrInvalidTag = errors.New("invalid or malformed tag")

// ErrInvalidTransferSyntax indicates an unsupported or invalid transfer syntax.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_10
var ErrInvalidTransferSyntax = errors.New("invalid or unsupported transfer syntax")

// ErrMissingTransferSyntax indicates the Transfer Syntax UID was not found in File Meta Information.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
var ErrMissingTransferSyntax = errors.New("missing Transfer Syntax UID in File Meta Information")

// ErrInvalidLength indicates an invalid value length was encountered.
var ErrInvalidLength = errors.New("invalid value length")

// ErrLimitExceeded indicates a defensive iteration or size cap was tripped
// (top-level element count, fragment count, File Meta scan iterations).
var ErrLimitExceeded = errors.New("parser limit exceeded")

// ErrElementTooLarge indicates a non-pixel-data element declared a length
// above the Element Engine's size cap. The element's bytes are skipped and
// parsing continues with the next element.
var ErrElementTooLarge = errors.New("element exceeds maximum size")

// ErrValueDecode indicates a value's bytes could not be interpreted per its
// declared VR. Occurrences inside a single element's value are localized by
// the Element Engine: the element is dropped and parsing continues.
var ErrValueDecode = errors.New("value decode failed")

// SequenceBoundsError reports an item or sequence body that would run past
// its declared length, tagged with the FFFE,E000 Item convention the
// standard uses for this failure mode.
type SequenceBoundsError struct {
	ItemTag  string
	Declared uint32
	Position int
}

func (e *SequenceBoundsError) Error() string {
	return "xFFFEE000: item body of " + itoaErr(int(e.Declared)) + " bytes exceeds remaining data at position " + itoaErr(e.Position)
}

// TruncatedValueError is reported (non-fatally, via a warning callback) when
// the streaming driver's finalize pass truncates a non-sequence,
// non-pixel-data element to the bytes actually available.
type TruncatedValueError struct {
	Tag       string
	Requested int
	Available int
}

func (e *TruncatedValueError) Error() string {
	return "truncated value for " + e.Tag + ": requested " + itoaErr(e.Requested) + " bytes, only " + itoaErr(e.Available) + " available"
}

func itoaErr(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
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
