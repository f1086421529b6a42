package visuals

import (
	"hash/fnv"
	"image"
	"image/color"

	"shortform-pipeline/types"
)

// gradientPalettes are the top/bottom colors available to the placeholder
// generator. The palette for a prompt is picked by hashing the prompt text,
// so a given prompt always renders the same gradient across runs.
var gradientPalettes = [][2]color.RGBA{
	{{R: 20, G: 10, B: 40, A: 255}, {R: 30, G: 30, B: 90, A: 255}},  // purple → blue
	{{R: 10, G: 25, B: 35, A: 255}, {R: 15, G: 70, B: 90, A: 255}},  // deep teal
	{{R: 35, G: 12, B: 12, A: 255}, {R: 90, G: 30, B: 45, A: 255}},  // ember
	{{R: 12, G: 20, B: 12, A: 255}, {R: 25, G: 70, B: 50, A: 255}},  // forest
	{{R: 25, G: 18, B: 8, A: 255}, {R: 85, G: 55, B: 20, A: 255}},   // amber dusk
	{{R: 18, G: 18, B: 24, A: 255}, {R: 55, G: 55, B: 75, A: 255}},  // slate
}

// Placeholder renders a vertical gradient at the target resolution. Used
// whenever the external image provider is unconfigured or gives up.
func Placeholder(prompt string, width, height int) *types.GeneratedImage {
	palette := gradientPalettes[placeholderHash(prompt)%uint32(len(gradientPalettes))]

	top, bottom := palette[0], palette[1]
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, ratio),
			G: lerp(top.G, bottom.G, ratio),
			B: lerp(top.B, bottom.B, ratio),
			A: 255,
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	return &types.GeneratedImage{Bitmap: img, Source: types.SourcePlaceholder}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + t*(float64(b)-float64(a)))
}

// placeholderHash is the stable FNV-1a hash of the normalized prompt, shared
// by palette selection and external generation seeds.
func placeholderHash(prompt string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(types.NormalizePromptKey(prompt)))
	return h.Sum32()
}
