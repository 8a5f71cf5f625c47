// Package wire implements the binary framing used between a streaming
// pipeline and its network peer: a fixed 18-byte header followed by a
// payload, plus the fragmentation and reassembly logic needed to carry
// coded video units larger than one datagram.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind tags the payload carried by a WirePacket.
type Kind uint8

const (
	KindVideo   Kind = 0x01
	KindAudio   Kind = 0x02
	KindInput   Kind = 0x03
	KindControl Kind = 0x04
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindInput:
		return "input"
	case KindControl:
		return "control"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	switch k {
	case KindVideo, KindAudio, KindInput, KindControl:
		return true
	default:
		return false
	}
}

// Flag bits carried in a packet's header.
const (
	FlagKeyframe     uint8 = 0x01
	FlagFragment     uint8 = 0x02
	FlagLastFragment uint8 = 0x04
)

// HeaderSize is the fixed size, in bytes, of a WirePacket header.
const HeaderSize = 18

var (
	// ErrTooShort is returned when a buffer is smaller than HeaderSize.
	ErrTooShort = errors.New("wire: packet shorter than header")
	// ErrBadKind is returned when the kind byte is not one of the known tags.
	ErrBadKind = errors.New("wire: unrecognized packet kind")
	// ErrTruncatedPayload is returned when the declared payload_len exceeds
	// the bytes actually available.
	ErrTruncatedPayload = errors.New("wire: payload shorter than declared length")
)

// Packet is a single decoded unit of the wire protocol: an 18-byte header
// plus its payload. Sequence numbers wrap modulo 2^32.
type Packet struct {
	Kind         Kind
	Sequence     uint32
	TimestampUs  uint64
	Flags        uint8
	Payload      []byte
}

// IsKeyframe reports whether the keyframe flag is set.
func (p *Packet) IsKeyframe() bool { return p.Flags&FlagKeyframe != 0 }

// IsFragment reports whether this packet is part of a fragmented unit.
func (p *Packet) IsFragment() bool { return p.Flags&FlagFragment != 0 }

// IsLastFragment reports whether this packet terminates a fragment chain.
func (p *Packet) IsLastFragment() bool { return p.Flags&FlagLastFragment != 0 }

// Encode serializes p into a single contiguous buffer: header then payload,
// produced with one allocation and one set of field writes, matching the
// coalesced-write style used for hot-path binary framing elsewhere in this
// codebase.
func (p *Packet) Encode() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	buf[0] = byte(p.Kind)
	binary.BigEndian.PutUint32(buf[1:5], p.Sequence)
	binary.BigEndian.PutUint64(buf[5:13], p.TimestampUs)
	buf[13] = p.Flags
	binary.BigEndian.PutUint32(buf[14:18], uint32(len(p.Payload)))
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

// Decode parses a Packet from data. The returned Packet's Payload aliases
// data — callers that retain it past the lifetime of data's backing array
// must copy. Trailing bytes beyond the declared payload are left for the
// caller; Decode never consumes more than it needs.
func Decode(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, ErrTooShort
	}

	kind := Kind(data[0])
	if !kind.valid() {
		return nil, ErrBadKind
	}

	payloadLen := binary.BigEndian.Uint32(data[14:18])
	if uint32(len(data)-HeaderSize) < payloadLen {
		return nil, ErrTruncatedPayload
	}

	return &Packet{
		Kind:        kind,
		Sequence:    binary.BigEndian.Uint32(data[1:5]),
		TimestampUs: binary.BigEndian.Uint64(data[5:13]),
		Flags:       data[13],
		Payload:     data[HeaderSize : HeaderSize+payloadLen],
	}, nil
}
