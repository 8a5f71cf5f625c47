package wire

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := &Packet{
		Kind:        KindVideo,
		Sequence:    42,
		TimestampUs: 1_700_000_000_000,
		Flags:       FlagKeyframe,
		Payload:     []byte("hello coded frame"),
	}

	buf := p.Encode()
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Kind != p.Kind || got.Sequence != p.Sequence || got.TimestampUs != p.TimestampUs || got.Flags != p.Flags {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, p)
	}
	if string(got.Payload) != string(p.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, p.Payload)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(make([]byte, HeaderSize-1))
	if err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestDecodeBadKind(t *testing.T) {
	buf := (&Packet{Kind: KindVideo}).Encode()
	buf[0] = 0xFF
	_, err := Decode(buf)
	if err != ErrBadKind {
		t.Fatalf("expected ErrBadKind, got %v", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	buf := (&Packet{Kind: KindVideo, Payload: []byte("0123456789")}).Encode()
	truncated := buf[:len(buf)-5]
	_, err := Decode(truncated)
	if err != ErrTruncatedPayload {
		t.Fatalf("expected ErrTruncatedPayload, got %v", err)
	}
}

func TestDecodeLeavesTrailingBytes(t *testing.T) {
	buf := (&Packet{Kind: KindVideo, Payload: []byte("abc")}).Encode()
	buf = append(buf, []byte("next-packet-starts-here")...)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got.Payload) != "abc" {
		t.Fatalf("expected payload to stop at declared length, got %q", got.Payload)
	}
}

func TestKindFlags(t *testing.T) {
	p := &Packet{Flags: FlagKeyframe | FlagFragment}
	if !p.IsKeyframe() || !p.IsFragment() || p.IsLastFragment() {
		t.Fatalf("unexpected flag decoding: %+v", p)
	}
}
