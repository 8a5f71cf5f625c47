package encode

import (
	"testing"

	"github.com/lanternops/streamcast/internal/capture"
	"github.com/lanternops/streamcast/internal/config"
)

func TestEncoderTagsKeyframesAtInterval(t *testing.T) {
	enc, err := New(config.VideoConfig{
		Width: 4, Height: 4, FPS: 30, BitrateKbps: 2000, KeyframeInterval: 3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer enc.Close()

	frame := &capture.Frame{
		Data:   make([]byte, 4*4*4),
		Width:  4, Height: 4, Stride: 16,
		Format: capture.FormatBGRA,
	}

	var keyframes []bool
	for i := 0; i < 6; i++ {
		pkt, err := enc.Encode(frame)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		keyframes = append(keyframes, pkt.IsKeyframe)
	}

	want := []bool{true, false, false, true, false, false}
	for i, k := range want {
		if keyframes[i] != k {
			t.Fatalf("frame %d: expected keyframe=%v, got %v", i, k, keyframes[i])
		}
	}
}

func TestEncoderUsesPlaceholderBackendByDefault(t *testing.T) {
	enc, err := New(config.VideoConfig{Width: 2, Height: 2, FPS: 30, BitrateKbps: 1000, KeyframeInterval: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer enc.Close()

	if !enc.BackendIsPlaceholder() {
		t.Fatalf("expected placeholder backend without a registered real codec, got %q", enc.BackendName())
	}
}
