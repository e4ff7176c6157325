package waveform

import "testing"

func alphaAt(img *Image, x, y int) byte {
	return img.Pix[(y*img.Width+x)*4+3]
}

// columnHeight counts drawn pixels in column x.
func columnHeight(img *Image, x int) int {
	n := 0
	for y := 0; y < img.Height; y++ {
		if alphaAt(img, x, y) == 0xFF {
			n++
		}
	}
	return n
}

func TestRasterizeBarGeometry(t *testing.T) {
	img := Rasterize([]float64{1.0, 0.5, 0.0}, 9, 10)

	// bar width 2, gap 1: bars at x 0-1, 3-4, 6-7; gaps at 2, 5, 8
	wantHeights := map[int]int{0: 6, 1: 6, 3: 3, 4: 3, 6: 2, 7: 2}
	for x, want := range wantHeights {
		if got := columnHeight(img, x); got != want {
			t.Errorf("column %d height = %d, want %d", x, got, want)
		}
	}
	for _, x := range []int{2, 5, 8} {
		if got := columnHeight(img, x); got != 0 {
			t.Errorf("gap column %d has %d drawn pixels, want 0", x, got)
		}
	}

	// full-amplitude bar is centered on row 5: rows 2 through 7
	for y := 2; y <= 7; y++ {
		if alphaAt(img, 0, y) != 0xFF {
			t.Errorf("expected bar pixel at (0, %d)", y)
		}
	}
	if alphaAt(img, 0, 1) != 0 || alphaAt(img, 0, 8) != 0 {
		t.Error("full-amplitude bar spills outside rows 2-7")
	}
}

func TestRasterizeAlphaIsBinary(t *testing.T) {
	amps := []float64{0.1, 0.9, 0.33, 0.0, 1.0}
	img := Rasterize(amps, 40, 16)

	for i := 3; i < len(img.Pix); i += 4 {
		if a := img.Pix[i]; a != 0 && a != 0xFF {
			t.Fatalf("pixel %d has partial alpha %d", i/4, a)
		}
	}
}

func TestRasterizeMinimumBarHeight(t *testing.T) {
	img := Rasterize([]float64{0.0}, 4, 8)
	if got := columnHeight(img, 0); got != 2 {
		t.Errorf("silent bar height = %d, want minimum 2", got)
	}
}

func TestRasterizeFixedConfiguration(t *testing.T) {
	amps := make([]float64, SampleCount)
	for i := range amps {
		amps[i] = 0.5
	}
	img := Rasterize(amps, ImageWidth, ImageHeight)

	if img.Width != ImageWidth || img.Height != ImageHeight {
		t.Fatalf("image is %dx%d, want %dx%d", img.Width, img.Height, ImageWidth, ImageHeight)
	}
	if len(img.Pix) != ImageWidth*ImageHeight*4 {
		t.Fatalf("pixel buffer size %d, want %d", len(img.Pix), ImageWidth*ImageHeight*4)
	}
	// 150 samples over 300 px: bar width 1, gap 1
	if columnHeight(img, 0) == 0 {
		t.Error("expected a bar in column 0")
	}
	if columnHeight(img, 1) != 0 {
		t.Error("expected a gap in column 1")
	}
}

func TestRasterizeEmptySeries(t *testing.T) {
	img := Rasterize(nil, 10, 10)
	for i, p := range img.Pix {
		if p != 0 {
			t.Fatalf("byte %d = %d in empty rasterization, want 0", i, p)
		}
	}
}
