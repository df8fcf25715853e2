package correct

import (
	"context"
	"fmt"
	"image"

	"github.com/aaronland/go-image-tools/util"
	"github.com/developmentseed/go-spherical2images/lens"
	"gocloud.dev/blob"
)

// CorrectImageOptions is a struct containing options for correcting lens
// distortion in a single image.
type CorrectImageOptions struct {
	// The gocloud.dev/blob.Bucket the image is read from.
	Bucket *blob.Bucket
	// The camera body the image was captured with.
	Camera *lens.Camera
	// The lens the image was captured through.
	Lens *lens.Lens
	// The focal length, in millimetres, the image was captured at.
	FocalLength float64
	// The aperture the image was captured at.
	Aperture float64
	// The focus distance, in metres, the image was captured at.
	Distance float64
}

// CorrectImage loads the image at 'image_path', computes per-pixel
// undistortion coordinates from the camera and lens geometry, and resamples
// the image through them with Lanczos interpolation. The corrected image is
// returned in memory and is not persisted here. Unlike the batch pipeline
// this operation has no partial-failure semantics: every error propagates to
// the caller.
func CorrectImage(ctx context.Context, opts *CorrectImageOptions, image_path string) (image.Image, error) {

	fh, err := opts.Bucket.NewReader(ctx, image_path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for %s, %w", image_path, err)
	}

	defer fh.Close()

	im, _, err := util.DecodeImageFromReader(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode %s, %w", image_path, err)
	}

	bounds := im.Bounds()

	mod, err := lens.NewModifier(opts.Lens, opts.Camera.CropFactor, bounds.Dx(), bounds.Dy())

	if err != nil {
		return nil, err
	}

	err = mod.Initialize(opts.FocalLength, opts.Aperture, opts.Distance)

	if err != nil {
		return nil, err
	}

	coords, err := mod.ApplyGeometryDistortion()

	if err != nil {
		return nil, err
	}

	return lens.Remap(im, coords)
}
