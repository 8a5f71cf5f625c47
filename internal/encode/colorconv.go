package encode

// bgraToNV12 converts a BGRA image to NV12 (4:2:0, interleaved UV plane)
// using BT.601 limited-range coefficients. Unlike a cheaper top-left-sample
// subsampling shortcut, chroma is the true average of each 2x2 luma block,
// per the BT.601 bound: Y in [16,235], U/V in [16,240].
func bgraToNV12(bgra []byte, width, height, stride int) []byte {
	ySize := width * height
	chromaWidth := (width + 1) / 2
	chromaHeight := (height + 1) / 2
	uvSize := chromaWidth * chromaHeight * 2
	out := make([]byte, ySize+uvSize)
	yPlane := out[:ySize]
	uvPlane := out[ySize:]

	pixelAt := func(x, y int) (b, g, r int) {
		i := y*stride + x*4
		return int(bgra[i]), int(bgra[i+1]), int(bgra[i+2])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b, g, r := pixelAt(x, y)
			yPlane[y*width+x] = byte(clamp(16+(66*r+129*g+25*b+128)>>8, 16, 235))
		}
	}

	for cy := 0; cy < chromaHeight; cy++ {
		for cx := 0; cx < chromaWidth; cx++ {
			x0, y0 := cx*2, cy*2
			var sumU, sumV, n int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					px, py := x0+dx, y0+dy
					if px >= width || py >= height {
						continue
					}
					b, g, r := pixelAt(px, py)
					sumU += 128 + (-38*r-74*g+112*b+128)>>8
					sumV += 128 + (112*r-94*g-18*b+128)>>8
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			idx := (cy*chromaWidth + cx) * 2
			uvPlane[idx] = byte(clamp(sumU/n, 16, 240))
			uvPlane[idx+1] = byte(clamp(sumV/n, 16, 240))
		}
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
