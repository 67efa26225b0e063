// Package wire implements the telescope stream framing protocol: a fixed
// 512-byte header carrying a magic checksum and two payload lengths,
// followed by a textual metadata block and a raw pixel block.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed size of the frame header on the wire.
	HeaderSize = 512

	// Magic is the checksum at offset 0 of every header, used to detect
	// drift in the data flow.
	Magic uint64 = 0x47494A53484F4D4F

	// MaxPayload caps either payload length. Anything larger than this is
	// treated as stream desync rather than an allocation request.
	MaxPayload = 256 << 20
)

// Header field offsets.
const (
	offMagic    = 0
	offMetaLen  = 8
	offPixelLen = 12
)

// Frame is one wire message: the metadata block and the pixel block.
// Transient; it only lives between ReadFrame and reconstruction.
type Frame struct {
	Meta   []byte
	Pixels []byte
}

// ReadFrame reads exactly one frame off r. It blocks until the full header
// and both payloads have been read. Errors wrap ErrConnectionClosed when the
// peer closes mid-read and ErrProtocolCorruption on a bad magic or an
// implausible length; after either, r must be discarded.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("%w: reading header: %v", ErrConnectionClosed, err)
	}

	magic := binary.LittleEndian.Uint64(header[offMagic : offMagic+8])
	if magic != Magic {
		return Frame{}, fmt.Errorf("%w: magic %#016x != %#016x", ErrProtocolCorruption, magic, Magic)
	}

	metaLen := binary.LittleEndian.Uint32(header[offMetaLen : offMetaLen+4])
	pixelLen := binary.LittleEndian.Uint32(header[offPixelLen : offPixelLen+4])
	if metaLen > MaxPayload || pixelLen > MaxPayload {
		return Frame{}, fmt.Errorf("%w: payload lengths %d/%d exceed limit", ErrProtocolCorruption, metaLen, pixelLen)
	}

	meta := make([]byte, metaLen)
	if _, err := io.ReadFull(r, meta); err != nil {
		return Frame{}, fmt.Errorf("%w: reading metadata block: %v", ErrConnectionClosed, err)
	}

	pixels := make([]byte, pixelLen)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return Frame{}, fmt.Errorf("%w: reading pixel block: %v", ErrConnectionClosed, err)
	}

	return Frame{Meta: meta, Pixels: pixels}, nil
}

// WriteFrame serializes f onto w in the wire layout ReadFrame expects.
// Used by the test stream emitter; the ingest path never writes.
func WriteFrame(w io.Writer, f Frame) error {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint64(header[offMagic:offMagic+8], Magic)
	binary.LittleEndian.PutUint32(header[offMetaLen:offMetaLen+4], uint32(len(f.Meta)))
	binary.LittleEndian.PutUint32(header[offPixelLen:offPixelLen+4], uint32(len(f.Pixels)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(f.Meta); err != nil {
		return fmt.Errorf("writing metadata block: %w", err)
	}
	if _, err := w.Write(f.Pixels); err != nil {
		return fmt.Errorf("writing pixel block: %w", err)
	}
	return nil
}

// Size returns the total number of bytes f occupies on the wire.
func (f Frame) Size() int {
	return HeaderSize + len(f.Meta) + len(f.Pixels)
}
