// Package raster holds the 8-bit single-channel image form consumed by the
// rest of the pipeline, plus decoding from the upload formats we accept.
// Values at or above 128 mark cutout (void) regions, values below 128 mark
// solid material.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrDecode indicates the supplied bytes could not be interpreted as an image.
var ErrDecode = errors.New("raster: undecodable image data")

// Raster is an 8-bit single-channel raster, row-major, origin top-left.
type Raster struct {
	W, H int
	Pix  []uint8
}

// New creates a zero-filled raster of the given size.
func New(w, h int) *Raster {
	return &Raster{W: w, H: h, Pix: make([]uint8, w*h)}
}

// Decode interprets data as an image (PNG, JPEG, GIF, BMP or TIFF) and
// converts it to grayscale. Failures wrap ErrDecode.
func Decode(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to a grayscale raster using the standard
// luminance model.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return &Raster{W: b.Dx(), H: b.Dy(), Pix: gray.Pix}
}

// At returns the sample at (x, y). Out-of-bounds coordinates return 0.
func (r *Raster) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return 0
	}
	return r.Pix[y*r.W+x]
}

// Resize returns a copy rescaled to w x h using nearest-neighbor sampling.
// Nearest-neighbor preserves the hard binary edges of a mask; interpolating
// samplers would smear the solid/void boundary across the threshold.
func (r *Raster) Resize(w, h int) *Raster {
	src := r.ToGray()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return &Raster{W: w, H: h, Pix: dst.Pix}
}

// ToGray converts the raster back into a standard library grayscale image.
func (r *Raster) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, r.W, r.H))
	copy(g.Pix, r.Pix)
	return g
}
