package correct

import (
	"context"
	"image"
	"image/jpeg"
	"testing"

	"github.com/developmentseed/go-spherical2images/lens"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
)

func openTestBucket(t *testing.T) *blob.Bucket {

	ctx := context.Background()
	dir := t.TempDir()

	bucket, err := blob.OpenBucket(ctx, "file://"+dir)

	if err != nil {
		t.Fatalf("Failed to open bucket, %v", err)
	}

	t.Cleanup(func() {
		bucket.Close()
	})

	return bucket
}

func testOptions(bucket *blob.Bucket, k1 float64) *CorrectImageOptions {

	return &CorrectImageOptions{
		Bucket: bucket,
		Camera: &lens.Camera{
			Maker:      "test",
			Model:      "test",
			CropFactor: 1.0,
		},
		Lens: &lens.Lens{
			Maker:      "test",
			Model:      "test",
			CropFactor: 1.0,
			Calibrations: []*lens.Calibration{
				{
					FocalLength: 10,
					Model:       lens.ModelPoly3,
					K1:          k1,
				},
			},
		},
		FocalLength: 10,
		Aperture:    2.8,
		Distance:    100,
	}
}

func TestCorrectImage(t *testing.T) {

	ctx := context.Background()
	bucket := openTestBucket(t)

	im := image.NewNRGBA(image.Rect(0, 0, 32, 24))

	wr, err := bucket.NewWriter(ctx, "fisheye.jpg", nil)

	if err != nil {
		t.Fatalf("Failed to create writer, %v", err)
	}

	err = jpeg.Encode(wr, im, nil)

	if err != nil {
		t.Fatalf("Failed to encode image, %v", err)
	}

	err = wr.Close()

	if err != nil {
		t.Fatalf("Failed to close writer, %v", err)
	}

	corrected, err := CorrectImage(ctx, testOptions(bucket, -0.1), "fisheye.jpg")

	if err != nil {
		t.Fatalf("Failed to correct image, %v", err)
	}

	bounds := corrected.Bounds()

	if bounds.Dx() != 32 || bounds.Dy() != 24 {
		t.Fatalf("Unexpected corrected dimensions %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCorrectImageMissingImage(t *testing.T) {

	ctx := context.Background()
	bucket := openTestBucket(t)

	// Unlike the batch pipeline there is nothing resilient here: the
	// error must reach the caller.

	_, err := CorrectImage(ctx, testOptions(bucket, 0), "nope.jpg")

	if err == nil {
		t.Fatal("Expected error for missing image")
	}
}
