package capture

import "sync/atomic"

// Synthetic is a deterministic in-process Screen implementation: it paints
// a moving gradient rather than grabbing real pixels. It exists so the
// pipeline, its tests, and --list-encoders-style smoke runs work without a
// platform capture backend, and it doubles as the FrameChangeHint example
// backend (every frame differs from the last by construction).
type Synthetic struct {
	width, height int
	seq           atomic.Uint64
	changed       atomic.Bool
}

// NewSynthetic returns a Synthetic capturer for the given dimensions.
func NewSynthetic(width, height int) *Synthetic {
	s := &Synthetic{width: width, height: height}
	s.changed.Store(true)
	return s
}

func (s *Synthetic) Capture() (*Frame, error) {
	seq := s.seq.Add(1)
	data := make([]byte, s.width*s.height*4)
	phase := byte(seq)
	for y := 0; y < s.height; y++ {
		row := data[y*s.width*4 : (y+1)*s.width*4]
		for x := 0; x < s.width; x++ {
			px := row[x*4 : x*4+4]
			px[0] = byte(x) + phase // B
			px[1] = byte(y) + phase // G
			px[2] = phase           // R
			px[3] = 0xFF            // A
		}
	}
	s.changed.Store(true)
	return &Frame{
		Data:     data,
		Width:    s.width,
		Height:   s.height,
		Stride:   s.width * 4,
		Format:   FormatBGRA,
		Sequence: seq,
	}, nil
}

func (s *Synthetic) Bounds() (int, int, error) { return s.width, s.height, nil }
func (s *Synthetic) Close() error              { return nil }
func (s *Synthetic) Changed() bool             { return s.changed.Swap(false) }

// Reconfigure changes the painted frame's dimensions. Only safe when called
// from the same goroutine that calls Capture — see Reconfigurable.
func (s *Synthetic) Reconfigure(width, height int) error {
	s.width, s.height = width, height
	s.changed.Store(true)
	return nil
}

var _ Screen          = (*Synthetic)(nil)
var _ FrameChangeHint = (*Synthetic)(nil)
var _ Reconfigurable  = (*Synthetic)(nil)
