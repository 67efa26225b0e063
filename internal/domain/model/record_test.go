package model

import (
	"testing"
	"time"
)

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		in       string
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{"localhost:6666", "localhost", 6666, false},
		{"10.0.0.1:80", "10.0.0.1", 80, false},
		{"[::1]:9000", "::1", 9000, false},
		{"localhost", "", 0, true},
		{"localhost:notaport", "", 0, true},
		{"localhost:70000", "", 0, true},
		{":6666", "", 0, true},
	}

	for _, tc := range cases {
		ep, err := ParseEndpoint(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseEndpoint(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEndpoint(%q): %v", tc.in, err)
			continue
		}
		if ep.Host != tc.wantHost || ep.Port != tc.wantPort {
			t.Errorf("ParseEndpoint(%q) = %v, want %s:%d", tc.in, ep, tc.wantHost, tc.wantPort)
		}
	}
}

func TestEndpointAddr(t *testing.T) {
	ep := Endpoint{Host: "::1", Port: 6666}
	if got := ep.Addr(); got != "[::1]:6666" {
		t.Errorf("Addr() = %q, want bracketed IPv6", got)
	}
}

func TestBatchSize(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &Batch{Timestamp: ts, Records: []*Record{{Timestamp: ts}, {Timestamp: ts}}}
	if b.Size() != 2 {
		t.Errorf("Size() = %d, want 2", b.Size())
	}
}
