//go:build cgo

package encode

import (
	"fmt"

	"github.com/y9o/go-openh264"
)

// openh264Backend wires a real H.264 encoder into the backend registry,
// answering the open question of which codec back-end an implementer
// should supply. It is preferred over the placeholder software backend
// whenever it initializes successfully.
type openh264Backend struct {
	enc *openh264.Encoder
}

func init() {
	registerHardwareFactory(func() (backend, error) {
		return &openh264Backend{}, nil
	})
}

func (o *openh264Backend) Name() string        { return "openh264" }
func (o *openh264Backend) IsHardware() bool    { return false }
func (o *openh264Backend) IsPlaceholder() bool { return false }

func (o *openh264Backend) Configure(width, height, fps, bitrateKbps int) error {
	enc, err := openh264.NewEncoder(width, height, fps, bitrateKbps*1000)
	if err != nil {
		return fmt.Errorf("openh264: init: %w", err)
	}
	o.enc = enc
	return nil
}

func (o *openh264Backend) Encode(nv12 []byte, forceKeyframe bool) ([]byte, error) {
	if forceKeyframe {
		o.enc.ForceIntraFrame()
	}
	return o.enc.EncodeYUV(nv12)
}

func (o *openh264Backend) SetBitrateKbps(kbps int) error {
	return o.enc.SetBitrate(kbps * 1000)
}

func (o *openh264Backend) Close() error {
	if o.enc != nil {
		o.enc.Close()
	}
	return nil
}

var _ backend = (*openh264Backend)(nil)
