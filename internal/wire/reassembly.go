package wire

// Reassembler rebuilds fragmented access units for a single peer. It holds
// a single chain — there is never more than one fragment sequence in
// flight per peer — and treats any gap or reordering as loss: the chain is
// dropped together with the mismatching packet, and the next fragment
// starts a fresh chain; packets are never reordered.
// Fragments of one coded unit carry strictly increasing, contiguous
// sequence numbers (mod 2^32); any gap resets the chain.
type Reassembler struct {
	active   bool
	expected uint32
	kind     Kind
	buf      []byte
}

// NewReassembler returns an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed processes one decoded packet and returns a complete, reassembled
// payload when one becomes available. ok is false both when the packet is
// only a partial contribution to an in-flight chain and when the packet
// was discarded as out-of-sequence.
func (r *Reassembler) Feed(p *Packet) (payload []byte, ok bool) {
	if !p.IsFragment() {
		r.reset()
		return p.Payload, true
	}

	if !r.active {
		return r.startChain(p)
	}

	if p.Sequence != r.expected || p.Kind != r.kind {
		log.Warn("fragment chain resync", "expectedSequence", r.expected, "gotSequence", p.Sequence)
		r.reset()
		return nil, false
	}

	r.buf = append(r.buf, p.Payload...)
	r.expected++
	if p.IsLastFragment() {
		return r.finish()
	}
	return nil, false
}

func (r *Reassembler) startChain(p *Packet) ([]byte, bool) {
	r.active = true
	r.kind = p.Kind
	r.buf = append([]byte(nil), p.Payload...)
	r.expected = p.Sequence + 1
	if p.IsLastFragment() {
		return r.finish()
	}
	return nil, false
}

func (r *Reassembler) finish() ([]byte, bool) {
	out := r.buf
	r.reset()
	return out, true
}

func (r *Reassembler) reset() {
	r.active = false
	r.buf = nil
	r.expected = 0
}
