package encode

// softwareBackend is the always-available fallback. It does NOT produce a
// conforming H.264 bitstream — it returns a copy of the NV12 input bytes
// unchanged so the rest of the pipeline (fragmentation, wire framing,
// reassembly) has real bytes to move. Treat this backend as
// an external collaborator stand-in, not a shippable encoder: a real
// deployment must register a hardware/software codec factory (see
// openh264_backend.go) ahead of it.
type softwareBackend struct {
	width, height, fps, bitrateKbps int
}

func newSoftwareBackend() backend { return &softwareBackend{} }

func (s *softwareBackend) Name() string       { return "software-passthrough" }
func (s *softwareBackend) IsHardware() bool   { return false }
func (s *softwareBackend) IsPlaceholder() bool { return true }

func (s *softwareBackend) Configure(width, height, fps, bitrateKbps int) error {
	s.width, s.height, s.fps, s.bitrateKbps = width, height, fps, bitrateKbps
	return nil
}

func (s *softwareBackend) Encode(nv12 []byte, forceKeyframe bool) ([]byte, error) {
	// Non-conforming: the "bitstream" is just the NV12 plane bytes. Real
	// decoders cannot parse this; it exists only to exercise everything
	// downstream of the encoder stage when no real codec is registered.
	out := make([]byte, len(nv12))
	copy(out, nv12)
	return out, nil
}

func (s *softwareBackend) Close() error { return nil }

var _ backend = (*softwareBackend)(nil)
