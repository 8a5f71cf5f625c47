package capture

import "testing"

func TestSyntheticProducesMonotonicSequence(t *testing.T) {
	s := NewSynthetic(4, 4)
	f1, err := s.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	f2, _ := s.Capture()

	if f2.Sequence <= f1.Sequence {
		t.Fatalf("expected increasing sequence, got %d then %d", f1.Sequence, f2.Sequence)
	}
	if len(f1.Data) != 4*4*4 {
		t.Fatalf("unexpected buffer size %d", len(f1.Data))
	}
}

func TestSyntheticReportsChanged(t *testing.T) {
	s := NewSynthetic(2, 2)
	s.Capture()
	if !s.Changed() {
		t.Fatal("expected Changed() true after a capture")
	}
	if s.Changed() {
		t.Fatal("expected Changed() to reset to false once consumed")
	}
}
