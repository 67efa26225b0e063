package receiver

import (
	"context"
	"encoding/binary"
	"math"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/okian/skystream/internal/adapters/mq/queue"
	"github.com/okian/skystream/internal/adapters/wire"
	"github.com/okian/skystream/internal/domain/model"
	"github.com/okian/skystream/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testFrame(ts string, values ...float32) wire.Frame {
	meta := "NAXIS1 = 1\nNAXIS2 = " + strconv.Itoa(len(values)) + "\nDATE-OBS = " + ts + "\n"
	pixels := make([]byte, 0, len(values)*4)
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		pixels = append(pixels, b[:]...)
	}
	return wire.Frame{Meta: []byte(meta), Pixels: pixels}
}

func endpointFor(t *testing.T, ln net.Listener) model.Endpoint {
	t.Helper()
	ep, err := model.ParseEndpoint(ln.Addr().String())
	if err != nil {
		t.Fatalf("parse listener addr: %v", err)
	}
	return ep
}

func TestReceiver_StreamsFrames(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			if err := wire.WriteFrame(conn, testFrame("2020-01-01T00:00:0"+strconv.Itoa(i), float32(i))); err != nil {
				return
			}
		}
	}()

	q := queue.NewInMemory[*model.Record](queue.WithBufferSize[*model.Record](16))
	r := New(endpointFor(t, ln), q, WithRetryDelay(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	records := q.Dequeue(ctx)
	for i := 0; i < 3; i++ {
		select {
		case rec := <-records:
			if rec.Matrix[0][0] != float32(i) {
				t.Errorf("record %d: pixel = %v, want %d (per-connection order broken)", i, rec.Matrix[0][0], i)
			}
			if rec.Source != ln.Addr().String() {
				t.Errorf("record %d: source = %q, want %q", i, rec.Source, ln.Addr().String())
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for record %d", i)
		}
	}

	cancel()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not stop after cancellation")
	}
}

func TestReceiver_WaitsBeforeReconnectingAfterConnectFailure(t *testing.T) {
	// Reserve a port, then close the listener so the first attempts fail.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ep, err := model.ParseEndpoint(addr)
	if err != nil {
		t.Fatalf("parse addr: %v", err)
	}
	ln.Close()

	retryDelay := 150 * time.Millisecond
	q := queue.NewInMemory[*model.Record](queue.WithBufferSize[*model.Record](4))
	r := New(ep, q, WithRetryDelay(retryDelay), WithDialTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	go r.Run(ctx)

	// Let at least one connect attempt fail, then reopen the port.
	time.Sleep(50 * time.Millisecond)
	ln2, err := net.Listen("tcp", addr)
	if err != nil {
		t.Skipf("could not rebind %s: %v", addr, err)
	}
	defer ln2.Close()

	accepted := make(chan time.Time, 1)
	go func() {
		conn, err := ln2.Accept()
		if err != nil {
			return
		}
		accepted <- time.Now()
		_ = wire.WriteFrame(conn, testFrame("2020-01-01T00:00:00", 1.0))
		conn.Close()
	}()

	select {
	case at := <-accepted:
		if elapsed := at.Sub(start); elapsed < retryDelay {
			t.Errorf("reconnected after %v, expected at least one %v wait", elapsed, retryDelay)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receiver never reconnected")
	}

	select {
	case <-q.Dequeue(ctx):
	case <-time.After(2 * time.Second):
		t.Fatal("no record after reconnect")
	}
}

func TestReceiver_ReconnectsImmediatelyOnStreamError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepts := make(chan struct{}, 4)
	go func() {
		// First connection: a frame that fails reconstruction (declared
		// dimensions do not match the pixel block). Second connection: a
		// good frame.
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepts <- struct{}{}
		bad := wire.Frame{
			Meta:   []byte("NAXIS1 = 2\nNAXIS2 = 2\nDATE-OBS = 2020-01-01T00:00:00\n"),
			Pixels: []byte{0, 0, 128, 63}, // 4 bytes, needs 16
		}
		_ = wire.WriteFrame(conn, bad)
		conn.Close()

		conn, err = ln.Accept()
		if err != nil {
			return
		}
		accepts <- struct{}{}
		_ = wire.WriteFrame(conn, testFrame("2020-01-01T00:00:01", 1.0))
		conn.Close()
	}()

	q := queue.NewInMemory[*model.Record](queue.WithBufferSize[*model.Record](4))
	// A long retry delay proves the mid-stream reconnect does not wait.
	r := New(endpointFor(t, ln), q, WithRetryDelay(30*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-accepts:
		case <-time.After(2 * time.Second):
			t.Fatalf("connection %d never arrived; mid-stream failure must reconnect without delay", i+1)
		}
	}

	select {
	case rec := <-q.Dequeue(ctx):
		if rec.Matrix[0][0] != 1.0 {
			t.Errorf("unexpected record from bad frame: %v", rec.Matrix)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no record from the second connection")
	}

	if q.Len() != 0 {
		t.Error("bad frame must not produce a record")
	}
}

func TestReceiver_CancelUnblocksRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		// Accept and hold the connection open without sending anything,
		// leaving the receiver blocked mid-header.
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(5 * time.Second)
	}()

	q := queue.NewInMemory[*model.Record](queue.WithBufferSize[*model.Record](4))
	r := New(endpointFor(t, ln), q)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not unblock the in-flight read")
	}
}
