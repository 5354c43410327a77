package simulation

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

const frameSize = 640

// DrawFrame renders the particles and the occupied-leaf extents of view into
// a square PNG, one pixel per particle and outlined rectangles for the
// extents.
func DrawFrame(particles []Particle, extents []Bounds, view Bounds, filename string, invertColor bool) error {
	if view.Width() <= 0 {
		return errors.Errorf("view must have positive width, got %g", view.Width())
	}
	img := image.NewRGBA(image.Rect(0, 0, frameSize, frameSize))
	background, foreground := color.Color(color.White), color.Color(color.Black)
	if invertColor {
		background, foreground = foreground, background
	}
	for y := 0; y < frameSize; y++ {
		for x := 0; x < frameSize; x++ {
			img.Set(x, y, background)
		}
	}
	extentColor := color.RGBA{R: 0xcc, G: 0xcc, B: 0x00, A: 0xff}
	for _, e := range extents {
		x0, y0 := toPixel(e.LL.X(), view.LL.X(), view.Width()), toPixel(e.LL.Y(), view.LL.Y(), view.Width())
		x1, y1 := toPixel(e.UR.X(), view.LL.X(), view.Width()), toPixel(e.UR.Y(), view.LL.Y(), view.Width())
		for x := x0; x <= x1; x++ {
			img.Set(x, y0, extentColor)
			img.Set(x, y1, extentColor)
		}
		for y := y0; y <= y1; y++ {
			img.Set(x0, y, extentColor)
			img.Set(x1, y, extentColor)
		}
	}
	for i := range particles {
		x := toPixel(particles[i].Pos.X(), view.LL.X(), view.Width())
		y := toPixel(particles[i].Pos.Y(), view.LL.Y(), view.Width())
		img.Set(x, y, foreground)
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create frame file")
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return errors.Wrap(err, "encode frame")
	}
	return nil
}

func toPixel(v, lo, width float64) int {
	return int((v - lo) / width * (frameSize - 1))
}
