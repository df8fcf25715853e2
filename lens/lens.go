package lens

// Geometric lens models for undistorting fisheye and wide-angle images.
// Cameras and lenses are described the way the lensfun project describes
// them: a camera contributes its sensor crop factor and a lens contributes
// per-focal-length radial distortion calibrations.

import (
	"fmt"
	"math"
)

// ModelPoly3 is a third-order polynomial radial distortion model with a
// single coefficient, K1.
const ModelPoly3 string = "poly3"

// ModelPTLens is the PanoTools/PTLens radial distortion model with three
// coefficients, A, B and C.
const ModelPTLens string = "ptlens"

// Camera describes a camera body.
type Camera struct {
	// The name of the company that produced the camera.
	Maker string `toml:"maker" json:"maker"`
	// The model name of the camera.
	Model string `toml:"model" json:"model"`
	// The sensor crop factor relative to a full (35mm) frame.
	CropFactor float64 `toml:"crop_factor" json:"crop_factor"`
}

// Calibration is a radial distortion calibration measured at a single focal
// length.
type Calibration struct {
	// The focal length, in millimetres, this calibration was measured at.
	FocalLength float64 `toml:"focal_length" json:"focal_length"`
	// The distortion model the coefficients below belong to.
	Model string `toml:"model" json:"model"`
	// The poly3 coefficient.
	K1 float64 `toml:"k1" json:"k1,omitempty"`
	// The ptlens coefficients.
	A float64 `toml:"a" json:"a,omitempty"`
	B float64 `toml:"b" json:"b,omitempty"`
	C float64 `toml:"c" json:"c,omitempty"`
}

// Lens describes a lens and its distortion calibrations.
type Lens struct {
	// The name of the company that produced the lens.
	Maker string `toml:"maker" json:"maker"`
	// The model name of the lens.
	Model string `toml:"model" json:"model"`
	// The crop factor of the sensor the calibrations were measured on.
	CropFactor float64 `toml:"crop_factor" json:"crop_factor"`
	// The per-focal-length distortion calibrations for the lens.
	Calibrations []*Calibration `toml:"calibrations" json:"calibrations"`
}

// calibrationFor returns the calibration whose focal length is closest to
// 'focal_length'.
func (l *Lens) calibrationFor(focal_length float64) (*Calibration, error) {

	if len(l.Calibrations) == 0 {
		return nil, fmt.Errorf("Lens %s has no distortion calibrations", l.Model)
	}

	best := l.Calibrations[0]
	best_d := math.Abs(best.FocalLength - focal_length)

	for _, c := range l.Calibrations[1:] {

		d := math.Abs(c.FocalLength - focal_length)

		if d < best_d {
			best = c
			best_d = d
		}
	}

	return best, nil
}

// distort maps an undistorted (corrected) normalized radius to the radius the
// same ray lands at in the distorted source image.
func (c *Calibration) distort(r float64) (float64, error) {

	switch c.Model {
	case ModelPoly3:
		// rd = ru * (1 - k1 + k1 * ru^2)
		return r * (1 - c.K1 + c.K1*r*r), nil
	case ModelPTLens:
		// rd = ru * (a * ru^3 + b * ru^2 + c * ru + d), d = 1 - a - b - c
		d := 1 - c.A - c.B - c.C
		return r * (c.A*r*r*r + c.B*r*r + c.C*r + d), nil
	default:
		return 0, fmt.Errorf("Unknown distortion model '%s'", c.Model)
	}
}
