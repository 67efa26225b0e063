// Package teststream emulates telescope data sources: it generates
// synthetic image frames and serves them over TCP in the real wire layout.
// Used by integration tests and the test-frames command.
package teststream

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/skystream/internal/adapters/wire"
)

// timestampLayout is how DATE-OBS is written into generated headers.
const timestampLayout = "2006-01-02T15:04:05.999999999"

// Generator produces synthetic image frames: a Gaussian blob centered in
// the field with Poisson-ish noise on top, the usual stand-in for a point
// source in an otherwise empty sky.
type Generator struct {
	width  int
	height int
	rng    *rand.Rand

	base []float32
}

// NewGenerator creates a generator for width x height images. The seed
// makes pixel noise reproducible across runs.
func NewGenerator(width, height int, seed int64) *Generator {
	g := &Generator{
		width:  width,
		height: height,
		rng:    rand.New(rand.NewSource(seed)),
	}

	g.base = make([]float32, width*height)
	cx, cy := float64(width)/2, float64(height)/2
	sigma := float64(width*height) / 20
	for i := range g.base {
		x := float64(i % height)
		y := float64(i / height)
		dx, dy := x-cx, y-cy
		g.base[i] = float32(1000 * math.Exp(-(dx*dx+dy*dy)/sigma))
	}

	return g
}

// Frame builds one wire frame observed at ts.
func (g *Generator) Frame(ts time.Time) wire.Frame {
	meta := fmt.Sprintf("SIMPLE = T\nNAXIS1 = %d\nNAXIS2 = %d\nDATE-OBS = %s\nORIGIN = teststream\n",
		g.width, g.height, ts.UTC().Format(timestampLayout))

	pixels := make([]byte, 0, len(g.base)*4)
	for _, base := range g.base {
		noise := float32(g.rng.NormFloat64()) * float32(math.Sqrt(float64(base)))
		v := base + noise
		if v < 0 {
			v = 0
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		pixels = append(pixels, b[:]...)
	}

	return wire.Frame{Meta: []byte(meta), Pixels: pixels}
}
