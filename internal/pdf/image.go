package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

type imageXObject struct {
	ref           *types.IndirectRef
	width, height int
}

// embedImage decodes a PNG or JPEG and stores it as a DeviceRGB image
// XObject, with a soft mask when the source has transparency.
func embedImage(xrt *model.XRefTable, data []byte) (*imageXObject, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty image")
	}

	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				rgb = append(rgb, 0xff, 0xff, 0xff)
			} else {
				// un-premultiply
				rgb = append(rgb, byte(r*0xffff/a>>8), byte(g*0xffff/a>>8), byte(b*0xffff/a>>8))
			}
			alpha = append(alpha, byte(a>>8))
			if a != 0xffff {
				opaque = false
			}
		}
	}

	entries := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(w),
		"Height":           types.Integer(h),
		"ColorSpace":       types.Name("DeviceRGB"),
		"BitsPerComponent": types.Integer(8),
	}
	if !opaque {
		mask, err := newStream(xrt, alpha, types.Dict{
			"Type":             types.Name("XObject"),
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(w),
			"Height":           types.Integer(h),
			"ColorSpace":       types.Name("DeviceGray"),
			"BitsPerComponent": types.Integer(8),
		})
		if err != nil {
			return nil, err
		}
		entries["SMask"] = *mask
	}
	ref, err := newStream(xrt, rgb, entries)
	if err != nil {
		return nil, err
	}
	return &imageXObject{ref: ref, width: w, height: h}, nil
}

// imageAppearance builds a form XObject drawing img inside a w×h widget.
// With keepAspect the image fills the widget height and its width follows
// the source aspect ratio; otherwise it is stretched over the whole widget.
func imageAppearance(xrt *model.XRefTable, img *imageXObject, w, h float64, keepAspect bool) (*types.IndirectRef, error) {
	drawW, drawH := w, h
	if keepAspect {
		drawW = h / (float64(img.height) / float64(img.width))
	}
	content := fmt.Sprintf("q\n%.4f 0 0 %.4f 0 0 cm\n/Img Do\nQ\n", drawW, drawH)
	return newStream(xrt, []byte(content), types.Dict{
		"Type":    types.Name("XObject"),
		"Subtype": types.Name("Form"),
		"BBox":    types.Array{types.Float(0), types.Float(0), types.Float(w), types.Float(h)},
		"Resources": types.Dict{
			"XObject": types.Dict{"Img": *img.ref},
		},
	})
}
