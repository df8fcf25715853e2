package extract

// Crop a horizontal-cross cubemap image in to individual face tiles. The
// cubemap is a 4x3 grid of square cells; six of the twelve cells hold the
// named cube faces and the rest are blank.

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/aaronland/go-image-tools/imaging"
	"github.com/aaronland/go-image-tools/util"
	"github.com/developmentseed/go-spherical2images/common"
	"gocloud.dev/blob"
)

const horizontal_chunks int = 4
const vertical_chunks int = 3

// cube_faces maps "x,y" grid positions to named cube faces. Grid positions
// absent from this map are blank in the horizontal-cross layout and are
// never written out.
var cube_faces = map[string]string{
	"1,0": "top",
	"0,1": "left",
	"1,1": "front",
	"2,1": "right",
	"3,1": "back",
	"1,2": "bottom",
}

// FaceResult is the outcome of extracting a single requested face. Exactly
// one of Path or Err is meaningful: a written bucket key on success, the
// extraction error otherwise.
type FaceResult struct {
	// The named cube face this result describes.
	Side string
	// The bucket key the tile was written to.
	Path string
	// The error that prevented the tile from being written.
	Err error
}

// ExtractFacesOptions is a struct containing options for extracting face
// tiles from a cubemap image.
type ExtractFacesOptions struct {
	// The gocloud.dev/blob.Bucket rooted at the output location.
	Bucket *blob.Bucket
	// The sequence ID used to derive tile paths.
	SequenceID string
	// The image ID used to derive tile paths.
	ImageID string
	// The edge length, in pixels, of each (square) face tile.
	Size int
	// The set of named cube faces to materialize.
	Sides []string
}

// ExtractFaces crops every requested face out of the cubemap stored at
// 'cubemap_path' and writes each one as a JPEG tile. Results are returned in
// grid-scan order, not requested order. A failure extracting one face never
// prevents the remaining faces from being extracted; if the cubemap itself
// cannot be read, one failed result is returned per requested face.
func ExtractFaces(ctx context.Context, opts *ExtractFacesOptions, cubemap_path string) []*FaceResult {

	logger := slog.Default()
	logger = logger.With("cubemap", cubemap_path)

	im, err := readCubemap(ctx, opts.Bucket, cubemap_path)

	if err != nil {

		logger.Error("Failed to read cubemap", "error", err)

		results := make([]*FaceResult, len(opts.Sides))

		for i, side := range opts.Sides {
			results[i] = &FaceResult{
				Side: side,
				Err:  fmt.Errorf("Failed to read cubemap %s, %w", cubemap_path, err),
			}
		}

		return results
	}

	bounds := im.Bounds()
	img_width := bounds.Dx()
	img_height := bounds.Dy()

	// The per-cell stride in the horizontal-cross layout. Cell size is
	// derived from the image dimensions, not from opts.Size: a projector
	// that produced something other than a 4x3 grid of squares would
	// silently misalign every crop, so check and say so.
	r := img_width - img_height

	if img_width*vertical_chunks != img_height*horizontal_chunks {
		logger.Warn("Cubemap is not a 4x3 horizontal cross", "width", img_width, "height", img_height)
	}

	if r != opts.Size {
		logger.Warn("Cubemap cell stride differs from requested clip size", "stride", r, "size", opts.Size)
	}

	requested := make(map[string]bool)

	for _, side := range opts.Sides {
		requested[side] = true
	}

	results := make([]*FaceResult, 0)

	for x := 0; x < horizontal_chunks; x += 1 {

		for y := 0; y < vertical_chunks; y += 1 {

			index := fmt.Sprintf("%d,%d", x, y)

			side, ok := cube_faces[index]

			if !ok {
				continue
			}

			if !requested[side] {
				continue
			}

			tile_path, err := extractFace(ctx, opts, im, x, y, r, side)

			if err != nil {
				logger.Error("Failed to extract face", "side", side, "error", err)
				results = append(results, &FaceResult{Side: side, Err: err})
				continue
			}

			results = append(results, &FaceResult{Side: side, Path: tile_path})
		}
	}

	return results
}

func readCubemap(ctx context.Context, bucket *blob.Bucket, path string) (image.Image, error) {

	fh, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for %s, %w", path, err)
	}

	defer fh.Close()

	im, _, err := util.DecodeImageFromReader(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode %s, %w", path, err)
	}

	return im, nil
}

func extractFace(ctx context.Context, opts *ExtractFacesOptions, im image.Image, x int, y int, r int, side string) (string, error) {

	rect := image.Rect(x*r, y*r, x*r+opts.Size, y*r+opts.Size)

	// imaging.Crop returns an NRGBA copy so tiles are always written with
	// standard RGB channel ordering regardless of the source encoding.
	crop := imaging.Crop(im, rect)

	tile_path := common.TilePath(opts.SequenceID, opts.ImageID, side)

	wr, err := opts.Bucket.NewWriter(ctx, tile_path, common.PublicReadWriterOptions())

	if err != nil {
		return "", fmt.Errorf("Failed to create writer for %s, %w", tile_path, err)
	}

	err = util.EncodeImage(crop, "jpeg", wr)

	if err != nil {
		wr.Close()
		return "", fmt.Errorf("Failed to encode %s, %w", tile_path, err)
	}

	err = wr.Close()

	if err != nil {
		return "", fmt.Errorf("Failed to close writer for %s, %w", tile_path, err)
	}

	return tile_path, nil
}
