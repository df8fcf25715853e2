package lens

import (
	"errors"
	"fmt"
	"math"
)

// Modifier computes per-pixel undistortion coordinates for a (lens, camera,
// image) combination. Construct one with NewModifier, call Initialize with
// the shooting parameters, then ApplyGeometryDistortion.
type Modifier struct {
	lens        *Lens
	crop_factor float64
	width       int
	height      int
	calibration *Calibration
	aperture    float64
	distance    float64
}

// NewModifier returns a Modifier for an image of 'width' x 'height' pixels
// captured through 'l' on a sensor with crop factor 'crop_factor'.
func NewModifier(l *Lens, crop_factor float64, width int, height int) (*Modifier, error) {

	if l == nil {
		return nil, errors.New("Missing lens")
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("Invalid image dimensions %dx%d", width, height)
	}

	m := &Modifier{
		lens:        l,
		crop_factor: crop_factor,
		width:       width,
		height:      height,
	}

	return m, nil
}

// Initialize selects the distortion calibration for the given shooting
// parameters. Aperture and focus distance do not participate in the radial
// geometry model; they are accepted so callers can pass the full set of
// shooting parameters the way the lensfun interface does.
func (m *Modifier) Initialize(focal_length float64, aperture float64, distance float64) error {

	c, err := m.lens.calibrationFor(focal_length)

	if err != nil {
		return err
	}

	m.calibration = c
	m.aperture = aperture
	m.distance = distance

	return nil
}

// ApplyGeometryDistortion returns, for every destination (corrected) pixel in
// row-major order, the x and y coordinates in the distorted source image to
// sample from.
func (m *Modifier) ApplyGeometryDistortion() ([][2]float32, error) {

	if m.calibration == nil {
		return nil, errors.New("Modifier has not been initialized")
	}

	cx := float64(m.width-1) / 2
	cy := float64(m.height-1) / 2

	// Normalized radius 1.0 is the smaller half-dimension. Calibrations
	// measured on a different sensor size are rescaled through the ratio
	// of crop factors.
	norm := math.Min(cx, cy)

	if norm == 0 {
		norm = 1
	}

	scale := 1.0

	if m.lens.CropFactor > 0 && m.crop_factor > 0 {
		scale = m.lens.CropFactor / m.crop_factor
	}

	coords := make([][2]float32, m.width*m.height)

	for y := 0; y < m.height; y += 1 {

		for x := 0; x < m.width; x += 1 {

			dx := (float64(x) - cx) / norm
			dy := (float64(y) - cy) / norm

			r := math.Hypot(dx, dy) * scale

			factor := 1.0

			if r > 0 {

				rd, err := m.calibration.distort(r)

				if err != nil {
					return nil, err
				}

				factor = rd / r
			}

			sx := cx + dx*factor*norm
			sy := cy + dy*factor*norm

			coords[y*m.width+x] = [2]float32{float32(sx), float32(sy)}
		}
	}

	return coords, nil
}
