package fits

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/skystream/internal/adapters/wire"
	"github.com/okian/skystream/internal/domain/model"
)

const bytesPerPixel = 4

// timestampLayouts are the DATE-OBS forms seen in practice: RFC3339 with and
// without zone, and the FITS convention with a space separator. Zoneless
// timestamps are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Reconstruct turns one wire frame into an image record. Pure function: it
// touches nothing but the frame. All failures wrap ErrDecode.
func Reconstruct(f wire.Frame) (*model.Record, error) {
	header, err := ParseHeader(f.Meta)
	if err != nil {
		return nil, err
	}

	width, err := intValue(header, keyWidth)
	if err != nil {
		return nil, err
	}
	height, err := intValue(header, keyHeight)
	if err != nil {
		return nil, err
	}

	ts, err := ParseTimestamp(header[keyTimestamp])
	if err != nil {
		return nil, err
	}

	if want := width * height * bytesPerPixel; len(f.Pixels) != want {
		return nil, fmt.Errorf("%w: pixel block is %d bytes, %dx%d image needs %d",
			ErrDecode, len(f.Pixels), width, height, want)
	}

	matrix := reshape(f.Pixels, width, height)

	return &model.Record{
		Timestamp: ts,
		Width:     width,
		Height:    height,
		Matrix:    matrix,
		Meta:      header,
	}, nil
}

// ParseTimestamp parses a DATE-OBS value into an absolute instant.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrDecode, keyTimestamp)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable %s %q", ErrDecode, keyTimestamp, value)
}

// reshape interprets raw little-endian float32 pixels as width rows of
// height values, matching the row-major wire order.
func reshape(pixels []byte, width, height int) [][]float32 {
	matrix := make([][]float32, width)
	off := 0
	for i := range matrix {
		row := make([]float32, height)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(pixels[off : off+bytesPerPixel]))
			off += bytesPerPixel
		}
		matrix[i] = row
	}
	return matrix
}

func intValue(header map[string]string, key string) (int, error) {
	raw, ok := header[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrDecode, key)
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an unsigned integer", ErrDecode, key, raw)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrDecode, key)
	}
	return int(n), nil
}
