package transport

import (
	"context"
	"testing"
	"time"

	"github.com/lanternops/streamcast/internal/metrics"
	"github.com/lanternops/streamcast/internal/wire"
)

func newBoundUDP(t *testing.T) *UDP {
	t.Helper()
	u := NewUDP("127.0.0.1", 0, 1400, metrics.New(time.Now()))
	if err := u.Bind(context.Background()); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return u
}

func TestUDPSendBeforeAnyReceiveIsANoop(t *testing.T) {
	u := newBoundUDP(t)
	defer u.Close()

	if err := u.Send(wire.KindVideo, 1, true, []byte("hello")); err != nil {
		t.Fatalf("Send with no pinned peer should be a silent no-op, got: %v", err)
	}
}

func TestUDPPinsPeerAndRoundTripsSmallPayload(t *testing.T) {
	server := newBoundUDP(t)
	defer server.Close()
	client := newBoundUDP(t)
	defer client.Close()

	serverAddr := server.conn.LocalAddr()

	payload := []byte("small coded frame")
	pkt := &wire.Packet{Kind: wire.KindVideo, Sequence: 0, TimestampUs: 1000, Payload: payload}
	buf := pkt.Encode()
	if _, err := client.conn.WriteTo(buf, serverAddr); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, gotPayload, err := server.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.Kind != wire.KindVideo || string(gotPayload) != string(payload) {
		t.Fatalf("got %+v payload %q, want matching", got, gotPayload)
	}

	server.peerMu.RLock()
	pinned := server.peer
	server.peerMu.RUnlock()
	if pinned == nil {
		t.Fatal("expected server to pin the client as peer after first receive")
	}

	// Now the server can Send back to the pinned client.
	replyCtx, replyCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer replyCancel()
	if err := server.Send(wire.KindControl, 2000, false, []byte("ack")); err != nil {
		t.Fatalf("Send to pinned peer: %v", err)
	}

	reply, replyPayload, err := client.Recv(replyCtx)
	if err != nil {
		t.Fatalf("client Recv: %v", err)
	}
	if reply.Kind != wire.KindControl || string(replyPayload) != "ack" {
		t.Fatalf("got %+v payload %q, want control/ack", reply, replyPayload)
	}
}

func TestUDPSendFragmentsAndReassemblesLargePayload(t *testing.T) {
	server := newBoundUDP(t)
	defer server.Close()
	client := newBoundUDP(t)
	defer client.Close()

	// Pin the client as server's peer by having it send one datagram first.
	if _, err := client.conn.WriteTo((&wire.Packet{Kind: wire.KindVideo, Sequence: 0}).Encode(), server.conn.LocalAddr()); err != nil {
		t.Fatalf("prime write: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := server.Recv(ctx); err != nil {
		t.Fatalf("priming Recv: %v", err)
	}

	large := make([]byte, 5000)
	for i := range large {
		large[i] = byte(i % 256)
	}

	sendDone := make(chan error, 1)
	go func() { sendDone <- server.Send(wire.KindVideo, 42, true, large) }()

	var reassembled []byte
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		recvCtx, recvCancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		_, payload, err := client.Recv(recvCtx)
		recvCancel()
		if err != nil {
			continue
		}
		if payload != nil {
			reassembled = payload
			break
		}
	}

	if err := <-sendDone; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(reassembled) != len(large) {
		t.Fatalf("reassembled length = %d, want %d", len(reassembled), len(large))
	}
	for i := range large {
		if reassembled[i] != large[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, reassembled[i], large[i])
		}
	}
}
