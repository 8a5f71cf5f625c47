package wire

import "github.com/lanternops/streamcast/internal/logging"

var log = logging.L("wire")

// startCodes are the Annex B NAL unit delimiters, longest first so a scan
// checking the 4-byte form first never misreads it as a 3-byte code plus
// a stray zero.
var startCodes = [][]byte{
	{0x00, 0x00, 0x00, 0x01},
	{0x00, 0x00, 0x01},
}

// unitStarts returns the offset of each Annex B start code found in data —
// the beginning of the start code itself, so a NAL unit's boundary includes
// its own delimiter rather than the delimiter belonging to the unit before it.
func unitStarts(data []byte) []int {
	var starts []int
	for i := 0; i < len(data); {
		matched := 0
		for _, code := range startCodes {
			if i+len(code) <= len(data) && bytesEqual(data[i:i+len(code)], code) {
				matched = len(code)
				break
			}
		}
		if matched > 0 {
			starts = append(starts, i)
			i += matched
			continue
		}
		i++
	}
	return starts
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Chunk splits an encoded access unit into one or more payloads that each
// fit within maxPayload bytes, preferring to split on Annex B NAL unit
// boundaries so a single datagram never straddles two unrelated NAL units
// unless a unit itself exceeds maxPayload.
//
// Algorithm (byte-code-boundary aware):
//  1. If len(data) <= maxPayload, return it as the single chunk.
//  2. Scan Annex B start codes to find NAL unit boundaries within data.
//  3. If no start codes are found, fall back to fixed-size slicing and log
//     the fallback — the caller likely fed a non-Annex-B bitstream.
//  4. Greedily pack whole units into chunks no larger than maxPayload.
//  5. A single unit larger than maxPayload is itself split across multiple
//     chunks; only its first sub-chunk begins at the unit's start code.
func Chunk(data []byte, maxPayload int) [][]byte {
	if maxPayload <= 0 {
		return nil
	}
	if len(data) <= maxPayload {
		return [][]byte{data}
	}

	starts := unitStarts(data)
	if len(starts) == 0 {
		log.Warn("no Annex B start codes found, falling back to fixed-size chunking", "size", len(data))
		return fixedChunk(data, maxPayload)
	}

	// Unit boundaries are the start-code offsets themselves, plus an
	// implicit leading unit for any bytes preceding the first start code
	// (found garbage, if any) and a trailing boundary at len(data).
	bounds := starts
	if bounds[0] != 0 {
		bounds = append([]int{0}, bounds...)
	}
	bounds = append(bounds, len(data))

	units := make([][]byte, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		units = append(units, data[bounds[i]:bounds[i+1]])
	}

	var chunks [][]byte
	var current []byte
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
		}
	}

	for _, unit := range units {
		if len(unit) > maxPayload {
			flush()
			chunks = append(chunks, fixedChunk(unit, maxPayload)...)
			continue
		}
		if len(current)+len(unit) > maxPayload {
			flush()
		}
		current = append(current, unit...)
	}
	flush()

	return chunks
}

func fixedChunk(data []byte, maxPayload int) [][]byte {
	var chunks [][]byte
	for i := 0; i < len(data); i += maxPayload {
		end := i + maxPayload
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}
