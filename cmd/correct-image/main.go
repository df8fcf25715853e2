package main

// Correct fisheye lens distortion in a single image using a camera and lens
// description from a TOML database.

import (
	"context"
	"flag"
	"log"

	"github.com/aaronland/go-image-tools/util"
	"github.com/developmentseed/go-spherical2images/common"
	"github.com/developmentseed/go-spherical2images/lens"
	"github.com/developmentseed/go-spherical2images/operations/correct"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	_ "image/jpeg"
	_ "image/png"
)

func main() {

	image_root := flag.String("image-root", "", "A valid gocloud.dev/blob bucket URI images are read from and written to.")
	image_path := flag.String("image", "", "The path, relative to -image-root, of the image to correct.")
	output_path := flag.String("output", "", "The path, relative to -image-root, the corrected image is written to.")
	database_path := flag.String("lens-database", "", "The path to a TOML camera and lens database.")
	camera_model := flag.String("camera", "", "The model name of the camera the image was captured with.")
	lens_model := flag.String("lens", "", "The model name of the lens the image was captured through.")
	focal_length := flag.Float64("focal-length", 0, "The focal length, in millimetres, the image was captured at.")
	aperture := flag.Float64("aperture", 0, "The aperture the image was captured at.")
	distance := flag.Float64("distance", 0, "The focus distance, in metres, the image was captured at.")

	flag.Parse()

	ctx := context.Background()

	db, err := lens.NewDatabase(*database_path)

	if err != nil {
		log.Fatalf("Failed to load lens database, %v", err)
	}

	cam, err := db.Camera(*camera_model)

	if err != nil {
		log.Fatalf("Failed to find camera, %v", err)
	}

	l, err := db.Lens(*lens_model)

	if err != nil {
		log.Fatalf("Failed to find lens, %v", err)
	}

	bucket, err := common.OpenBucket(ctx, *image_root)

	if err != nil {
		log.Fatalf("Failed to open image root, %v", err)
	}

	defer bucket.Close()

	opts := &correct.CorrectImageOptions{
		Bucket:      bucket,
		Camera:      cam,
		Lens:        l,
		FocalLength: *focal_length,
		Aperture:    *aperture,
		Distance:    *distance,
	}

	im, err := correct.CorrectImage(ctx, opts, *image_path)

	if err != nil {
		log.Fatalf("Failed to correct %s, %v", *image_path, err)
	}

	wr, err := bucket.NewWriter(ctx, *output_path, nil)

	if err != nil {
		log.Fatalf("Failed to create writer for %s, %v", *output_path, err)
	}

	err = util.EncodeImage(im, "jpeg", wr)

	if err != nil {
		wr.Close()
		log.Fatalf("Failed to encode %s, %v", *output_path, err)
	}

	err = wr.Close()

	if err != nil {
		log.Fatalf("Failed to close writer for %s, %v", *output_path, err)
	}

	log.Printf("Wrote %s\n", *output_path)
}
