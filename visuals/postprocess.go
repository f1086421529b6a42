package visuals

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"shortform-pipeline/types"
)

// Process scales the image so the target frame is fully covered, center-crops
// the overflow, and darkens the result for text legibility. Never letterboxes
// and never distorts aspect ratio. darken must be in (0, 1]; 1.0 leaves the
// image untouched.
func Process(img *types.GeneratedImage, width, height int, darken float64) (*types.GeneratedImage, error) {
	if img == nil || img.Bitmap == nil {
		return nil, fmt.Errorf("post-process: nil image")
	}
	if darken <= 0 || darken > 1 {
		return nil, fmt.Errorf("post-process: darken factor %.2f out of range (0, 1]", darken)
	}

	covered := resizeCover(img.Bitmap, width, height)
	if darken < 1 {
		darkenInPlace(covered, darken)
	}

	return &types.GeneratedImage{Bitmap: covered, Source: img.Source, Processed: true}, nil
}

// resizeCover scales src so the w×h rectangle is fully covered, then crops
// the centered window into a fresh RGBA.
func resizeCover(src image.Image, w, h int) *image.RGBA {
	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()

	// Scale by the larger ratio so both dimensions cover the target.
	scaleX := float64(w) / float64(srcW)
	scaleY := float64(h) / float64(srcH)
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}

	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	if scaledW < w {
		scaledW = w
	}
	if scaledH < h {
		scaledH = h
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, sb, xdraw.Over, nil)

	offX := (scaledW - w) / 2
	offY := (scaledH - h) / 2
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(out, out.Bounds(), scaled, image.Pt(offX, offY), xdraw.Src)
	return out
}

// darkenInPlace multiplies every RGB channel by factor, leaving alpha alone.
func darkenInPlace(img *image.RGBA, factor float64) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(float64(pix[i]) * factor)
		pix[i+1] = uint8(float64(pix[i+1]) * factor)
		pix[i+2] = uint8(float64(pix[i+2]) * factor)
	}
}
