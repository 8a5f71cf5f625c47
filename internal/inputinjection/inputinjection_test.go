package inputinjection

import "testing"

func TestNoopInjectorAlwaysSucceedsWhenEnabled(t *testing.T) {
	inj := &NoopInjector{KeyboardEnabled: true, MouseEnabled: true}

	if err := inj.Handle(Event{Type: EventMouseMove, X: 10, Y: 20}); err != nil {
		t.Fatalf("mouse move should succeed: %v", err)
	}
	if err := inj.Handle(Event{Type: EventKeyDown, Key: 65}); err != nil {
		t.Fatalf("key down should succeed: %v", err)
	}
}

func TestNoopInjectorRejectsDisabledChannel(t *testing.T) {
	inj := &NoopInjector{KeyboardEnabled: false, MouseEnabled: true}

	if err := inj.Handle(Event{Type: EventKeyDown}); err == nil {
		t.Fatal("expected error when keyboard input is disabled")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := Event{Type: EventMouseDown, X: 5, Y: 6, Button: 1}
	data, err := Encode(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != e {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, e)
	}
}
