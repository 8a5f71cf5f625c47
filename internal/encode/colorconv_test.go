package encode

import "testing"

func TestBGRAToNV12OutputSize(t *testing.T) {
	width, height := 4, 4
	bgra := make([]byte, width*height*4)
	for i := range bgra {
		bgra[i] = 0x80
	}

	nv12 := bgraToNV12(bgra, width, height, width*4)
	want := width*height + (width*height)/2
	if len(nv12) != want {
		t.Fatalf("expected NV12 buffer of %d bytes, got %d", want, len(nv12))
	}
}

func TestBGRAToNV12FlatGrayStaysFlat(t *testing.T) {
	width, height := 2, 2
	bgra := make([]byte, width*height*4)
	for i := 0; i < len(bgra); i += 4 {
		bgra[i], bgra[i+1], bgra[i+2], bgra[i+3] = 128, 128, 128, 255
	}

	nv12 := bgraToNV12(bgra, width, height, width*4)
	y0 := nv12[0]
	for i := 0; i < width*height; i++ {
		if nv12[i] != y0 {
			t.Fatalf("expected uniform luma for flat input, pixel %d differs: %d vs %d", i, nv12[i], y0)
		}
	}
}

func TestBGRAToNV12AveragesChromaOverFullBlock(t *testing.T) {
	// A 2x2 block with two very different colors in each row: averaging
	// must blend both rows, not just sample the top-left pixel.
	width, height := 2, 2
	bgra := []byte{
		0, 0, 255, 255, // top-left: pure red (BGRA)
		255, 0, 0, 255, // top-right: pure blue
		0, 0, 255, 255, // bottom-left: pure red
		255, 0, 0, 255, // bottom-right: pure blue
	}

	nv12 := bgraToNV12(bgra, width, height, width*4)
	u := nv12[width*height]

	topLeftOnly := bgraToNV12([]byte{0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 255}, width, height, width*4)
	uTopLeftOnly := topLeftOnly[width*height]

	if u == uTopLeftOnly {
		t.Fatalf("expected blended chroma to differ from a top-left-only sample")
	}
}

func TestBGRAToNV12HandlesOddDimensions(t *testing.T) {
	width, height := 5, 3
	bgra := make([]byte, width*height*4)
	for i := range bgra {
		bgra[i] = byte(i % 256)
	}

	nv12 := bgraToNV12(bgra, width, height, width*4)

	chromaWidth := (width + 1) / 2
	chromaHeight := (height + 1) / 2
	want := width*height + chromaWidth*chromaHeight*2
	if len(nv12) != want {
		t.Fatalf("expected NV12 buffer of %d bytes for %dx%d, got %d", want, width, height, len(nv12))
	}
}
