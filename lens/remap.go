package lens

import (
	"fmt"
	"image"
	"math"

	"github.com/aaronland/go-image-tools/imaging"
)

// The Lanczos window radius used for resampling.
const lanczos_radius int = 3

// Remap resamples 'im' through the per-pixel source coordinates in 'coords'
// (row-major, one entry per destination pixel) using Lanczos interpolation.
// Destination pixels whose source coordinates fall outside the image are
// black.
func Remap(im image.Image, coords [][2]float32) (*image.NRGBA, error) {

	bounds := im.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if len(coords) != width*height {
		return nil, fmt.Errorf("Coordinate count %d does not match %dx%d image", len(coords), width, height)
	}

	src := imaging.Clone(im)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y += 1 {

		for x := 0; x < width; x += 1 {

			c := coords[y*width+x]

			r, g, b, a := sampleLanczos(src, float64(c[0]), float64(c[1]))

			i := dst.PixOffset(x, y)

			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = a
		}
	}

	return dst, nil
}

func sampleLanczos(src *image.NRGBA, sx float64, sy float64) (uint8, uint8, uint8, uint8) {

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if sx < 0 || sy < 0 || sx > float64(width-1) || sy > float64(height-1) {
		return 0, 0, 0, 255
	}

	x0 := int(math.Floor(sx)) - lanczos_radius + 1
	y0 := int(math.Floor(sy)) - lanczos_radius + 1

	var sum_w, sum_r, sum_g, sum_b, sum_a float64

	for j := 0; j < lanczos_radius*2; j += 1 {

		y := y0 + j

		if y < 0 || y >= height {
			continue
		}

		wy := lanczos(sy - float64(y))

		if wy == 0 {
			continue
		}

		for i := 0; i < lanczos_radius*2; i += 1 {

			x := x0 + i

			if x < 0 || x >= width {
				continue
			}

			w := wy * lanczos(sx-float64(x))

			if w == 0 {
				continue
			}

			p := src.PixOffset(x, y)

			sum_w += w
			sum_r += w * float64(src.Pix[p+0])
			sum_g += w * float64(src.Pix[p+1])
			sum_b += w * float64(src.Pix[p+2])
			sum_a += w * float64(src.Pix[p+3])
		}
	}

	if sum_w == 0 {
		return 0, 0, 0, 255
	}

	return clamp(sum_r / sum_w), clamp(sum_g / sum_w), clamp(sum_b / sum_w), clamp(sum_a / sum_w)
}

func lanczos(x float64) float64 {

	if x == 0 {
		return 1
	}

	a := float64(lanczos_radius)

	if x <= -a || x >= a {
		return 0
	}

	px := math.Pi * x
	return a * math.Sin(px) * math.Sin(px/a) / (px * px)
}

func clamp(v float64) uint8 {

	if v < 0 {
		return 0
	}

	if v > 255 {
		return 255
	}

	return uint8(v + 0.5)
}
