// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record is one reconstructed telescope image: the pixel matrix plus the
// textual header it arrived with. Immutable once built; ownership moves
// from the receiver through the record queue to the merger.
type Record struct {
	Timestamp time.Time         // observation time parsed from DATE-OBS
	Width     int               // NAXIS1
	Height    int               // NAXIS2
	Matrix    [][]float32       // Width rows of Height pixels, row-major off the wire
	Meta      map[string]string // full header key/value set, keys upper-cased
	Source    string            // endpoint address the record was read from
}

// Batch is a group of records sharing one observation timestamp, the unit
// handed to downstream pipeline stages.
type Batch struct {
	ID        uuid.UUID
	Timestamp time.Time
	Records   []*Record
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Endpoint identifies one telescope data source.
type Endpoint struct {
	Host string
	Port uint16
}

// Addr returns the endpoint in host:port form suitable for net.Dial.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

func (e Endpoint) String() string {
	return e.Addr()
}

// ParseEndpoint parses a "host:port" string into an Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: empty host", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}
	return Endpoint{Host: host, Port: uint16(port)}, nil
}
