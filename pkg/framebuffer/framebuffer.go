// Package framebuffer collects streamed pixel updates into an RGB image.
package framebuffer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
)

// Framebuffer is a row-major RGB byte buffer, three bytes per pixel, with
// y = 0 at the top. Only the goroutine draining the update stream writes it.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a black framebuffer
func New(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// Set writes one pixel. Coordinates outside the image are ignored.
func (fb *Framebuffer) Set(x, y int, p core.Pixel) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	i := (y*fb.Width + x) * 3
	fb.Pix[i] = p.R
	fb.Pix[i+1] = p.G
	fb.Pix[i+2] = p.B
}

// At returns the pixel at (x, y), or black outside the image
func (fb *Framebuffer) At(x, y int) core.Pixel {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return core.Pixel{}
	}
	i := (y*fb.Width + x) * 3
	return core.Pixel{R: fb.Pix[i], G: fb.Pix[i+1], B: fb.Pix[i+2]}
}

// Drain applies every update that is available right now without waiting
// for more. It returns how many were applied and false once ch is closed
// and empty. Call it once per displayed frame.
func (fb *Framebuffer) Drain(ch <-chan renderer.PixelUpdate) (n int, open bool) {
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return n, false
			}
			fb.Set(u.X, u.Y, u.Pixel)
			n++
		default:
			return n, true
		}
	}
}

// Image converts the buffer to an opaque RGBA image
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			p := fb.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return img
}

// Scaled returns the image resized to width x height with nearest-neighbour
// sampling, which keeps single pixels crisp in previews
func (fb *Framebuffer) Scaled(width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := fb.Image()
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
