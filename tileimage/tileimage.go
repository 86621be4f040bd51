/*
Package tileimage implements the canonical serialized form of composed
tile images and their content hash.

Images are 16 by 16 pixels and are serialized as paletted PNG. An image
that is not already paletted with at most four colors is median cut
quantized first. The serialization is deterministic, so two images with
identical pixel content always produce identical bytes and therefore the
same hash, regardless of where they were composed from.
*/
package tileimage

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

const (
	// Size is the pixel width and height of every tile image.
	Size = 16

	maxColors = 4
)

var errWrongSize = errors.New("tileimage: image is wrong size")

func canonical(m image.Image) (*image.Paletted, error) {
	b := m.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		return nil, errWrongSize
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok && len(cp) <= maxColors {
			pm = image.NewPaletted(b, cp)
			draw.Draw(pm, b, m, b.Min, draw.Src)
		}
	}
	if pm == nil || len(pm.Palette) > maxColors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return pm, nil
}

// Encode writes the canonical form of m to w.
func Encode(w io.Writer, m image.Image) error {
	pm, err := canonical(m)
	if err != nil {
		return err
	}
	return png.Encode(w, pm)
}

// Decode reads a stored tile image back from r.
func Decode(r io.Reader) (image.Image, error) {
	return png.Decode(r)
}

// Hash returns the hex digest of the canonical form of m.
func Hash(m image.Image) (string, error) {
	h := sha1.New()
	if err := Encode(h, m); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}
