package wire

import "testing"

func TestReassemblerUnfragmentedPassesThrough(t *testing.T) {
	r := NewReassembler()
	p := &Packet{Kind: KindVideo, Sequence: 5, Payload: []byte("whole frame")}

	payload, ok := r.Feed(p)
	if !ok || string(payload) != "whole frame" {
		t.Fatalf("expected immediate pass-through, got %q ok=%v", payload, ok)
	}
}

func TestReassemblerAccumulatesContiguousFragments(t *testing.T) {
	r := NewReassembler()

	p1 := &Packet{Kind: KindVideo, Sequence: 10, Flags: FlagFragment, Payload: []byte("part1-")}
	p2 := &Packet{Kind: KindVideo, Sequence: 11, Flags: FlagFragment, Payload: []byte("part2-")}
	p3 := &Packet{Kind: KindVideo, Sequence: 12, Flags: FlagFragment | FlagLastFragment, Payload: []byte("part3")}

	if _, ok := r.Feed(p1); ok {
		t.Fatalf("first fragment should not complete a frame")
	}
	if _, ok := r.Feed(p2); ok {
		t.Fatalf("middle fragment should not complete a frame")
	}
	payload, ok := r.Feed(p3)
	if !ok {
		t.Fatalf("last fragment should complete the frame")
	}
	if string(payload) != "part1-part2-part3" {
		t.Fatalf("unexpected reassembled payload: %q", payload)
	}
}

func TestReassemblerResyncsOnSequenceGap(t *testing.T) {
	r := NewReassembler()

	p1 := &Packet{Kind: KindVideo, Sequence: 20, Flags: FlagFragment, Payload: []byte("a")}
	r.Feed(p1)

	// Gap: sequence 22 instead of expected 21. Even though p2 carries
	// LAST_FRAGMENT, a resync must drop the chain and yield nothing — it
	// must never be mistaken for the start of a new, already-complete chain.
	p2 := &Packet{Kind: KindVideo, Sequence: 22, Flags: FlagFragment | FlagLastFragment, Payload: []byte("b")}
	payload, ok := r.Feed(p2)

	if ok || payload != nil {
		t.Fatalf("resync must drop the chain and yield nothing, got payload %q ok=%v", payload, ok)
	}

	// The reassembler must be usable again afterward: an unfragmented
	// packet right after a resync still passes through cleanly.
	p3 := &Packet{Kind: KindVideo, Sequence: 23, Payload: []byte("whole frame")}
	payload, ok = r.Feed(p3)
	if !ok || string(payload) != "whole frame" {
		t.Fatalf("expected reassembler to recover after a resync, got %q ok=%v", payload, ok)
	}
}

func TestReassemblerDropsMidChainGapProducesNothing(t *testing.T) {
	r := NewReassembler()

	p1 := &Packet{Kind: KindVideo, Sequence: 30, Flags: FlagFragment, Payload: []byte("a")}
	r.Feed(p1)

	// Non-last fragment with a gap: the chain is dropped, nothing yielded.
	p2 := &Packet{Kind: KindVideo, Sequence: 99, Flags: FlagFragment, Payload: []byte("x")}
	if payload, ok := r.Feed(p2); ok || payload != nil {
		t.Fatalf("a resync fragment must not complete a frame, got payload %q ok=%v", payload, ok)
	}
}
