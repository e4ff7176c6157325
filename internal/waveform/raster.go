package waveform

// Bar color for rendered waveforms (Echoroom accent).
const (
	barRed   = 0x7C
	barGreen = 0x4D
	barBlue  = 0xFF
)

// Image is a width x height RGBA pixel grid, row-major from the top-left.
// Alpha is 255 on bar pixels and 0 everywhere else.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// Rasterize draws amps as a bar chart mirrored around the horizontal
// center line. Bars are left-packed with a 1-pixel gap; when the bar count
// does not divide the width evenly the right edge stays blank rather than
// stretching the bars.
func Rasterize(amps []float64, width, height int) *Image {
	img := &Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
	if len(amps) == 0 {
		return img
	}

	barWidth := width/len(amps) - 1
	if barWidth < 1 {
		barWidth = 1
	}
	center := height / 2

	for i, a := range amps {
		barHeight := int(a * float64(height-4))
		if barHeight < 2 {
			barHeight = 2
		}

		top := center - barHeight/2
		x0 := i * (barWidth + 1)

		for x := x0; x < x0+barWidth && x < width; x++ {
			for y := top; y < top+barHeight; y++ {
				if y < 0 || y >= height {
					continue
				}
				off := (y*width + x) * 4
				img.Pix[off] = barRed
				img.Pix[off+1] = barGreen
				img.Pix[off+2] = barBlue
				img.Pix[off+3] = 0xFF
			}
		}
	}

	return img
}
