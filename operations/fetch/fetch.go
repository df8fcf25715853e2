package fetch

// Fetch-and-clip orchestration for a single feature record: check for
// already-produced tiles, otherwise fetch the equirectangular source, project
// it to a cubemap, extract the requested faces, clean up intermediates and
// derive one enriched feature record per produced tile.

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/developmentseed/go-spherical2images/common"
	"github.com/developmentseed/go-spherical2images/convert"
	"github.com/developmentseed/go-spherical2images/feature"
	"github.com/developmentseed/go-spherical2images/mapillary"
	"github.com/developmentseed/go-spherical2images/operations/clean"
	"github.com/developmentseed/go-spherical2images/operations/extract"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/tidwall/sjson"
	"gocloud.dev/blob"
)

// FetchAndClipOptions is a struct containing options for fetching and
// clipping the image referenced by a feature record.
type FetchAndClipOptions struct {
	// The gocloud.dev/blob.Bucket rooted at the output location.
	Bucket *blob.Bucket
	// The client used to resolve and download source images.
	Client *mapillary.Client
	// The external equirectangular-to-cubemap projector.
	Converter convert.Converter
	// The edge length, in pixels, of each (square) face tile.
	ClipSize int
	// The set of named cube faces to materialize.
	Sides []string
	// An optional boolean flag to fingerprint and perceptually hash each
	// produced tile and record the results on the derived feature.
	HashTiles bool
}

// FetchAndClip processes one feature record, returning zero or more derived
// copies of it, one per successfully produced tile, each with its
// properties.image_path property assigned. If every requested tile already
// exists the records are synthesized from the existing paths and no network
// or external-process work is performed. The input document is never
// modified.
func FetchAndClip(ctx context.Context, opts *FetchAndClipOptions, body []byte) ([][]byte, error) {

	sequence_id, err := feature.SequenceID(body)

	if err != nil {
		return nil, err
	}

	image_id, err := feature.ImageID(body)

	if err != nil {
		return nil, err
	}

	exists, err := tilesExist(ctx, opts, sequence_id, image_id)

	if err != nil {
		return nil, err
	}

	if exists {

		results := make([][]byte, 0)

		for _, side := range opts.Sides {

			tile_path := common.TilePath(sequence_id, image_id, side)
			new_body, err := feature.WithImagePath(body, tile_path)

			if err != nil {
				return nil, err
			}

			results = append(results, new_body)
		}

		return results, nil
	}

	source_path := common.SourcePath(sequence_id, image_id)
	cubemap_path := common.CubemapPath(sequence_id, image_id)

	err = fetchSource(ctx, opts, image_id, source_path)

	if err != nil {
		return nil, err
	}

	created := sourceCreated(ctx, opts.Bucket, source_path)

	err = projectCubemap(ctx, opts, image_id, source_path, cubemap_path)

	if err != nil {
		return nil, err
	}

	extract_opts := &extract.ExtractFacesOptions{
		Bucket:     opts.Bucket,
		SequenceID: sequence_id,
		ImageID:    image_id,
		Size:       opts.ClipSize,
		Sides:      opts.Sides,
	}

	face_results := extract.ExtractFaces(ctx, extract_opts, cubemap_path)

	clean_opts := &clean.CleanIntermediatesOptions{
		Bucket:     opts.Bucket,
		SequenceID: sequence_id,
		ImageID:    image_id,
		Sides:      opts.Sides,
	}

	err = clean.CleanIntermediates(ctx, clean_opts)

	if err != nil {
		return nil, err
	}

	results := make([][]byte, 0)

	for _, rsp := range face_results {

		if rsp.Err != nil {
			continue
		}

		new_body, err := feature.WithImagePath(body, rsp.Path)

		if err != nil {
			return nil, err
		}

		if created != 0 {

			new_body, err = sjson.SetBytes(new_body, "properties.media:created", created)

			if err != nil {
				return nil, fmt.Errorf("Failed to assign properties.media:created property, %w", err)
			}
		}

		if opts.HashTiles {

			new_body, err = appendTileHashes(ctx, opts.Bucket, new_body, rsp.Path)

			if err != nil {
				return nil, err
			}
		}

		results = append(results, new_body)
	}

	return results, nil
}

// tilesExist reports whether a tile already exists for every requested face.
func tilesExist(ctx context.Context, opts *FetchAndClipOptions, sequence_id string, image_id string) (bool, error) {

	for _, side := range opts.Sides {

		tile_path := common.TilePath(sequence_id, image_id, side)

		exists, err := opts.Bucket.Exists(ctx, tile_path)

		if err != nil {
			return false, fmt.Errorf("Failed to determine whether %s exists, %w", tile_path, err)
		}

		if !exists {
			return false, nil
		}
	}

	return true, nil
}

// fetchSource resolves the download URL for 'image_id' and streams the image
// body in to the bucket at 'source_path'.
func fetchSource(ctx context.Context, opts *FetchAndClipOptions, image_id string, source_path string) error {

	url, err := opts.Client.ThumbURL(ctx, image_id)

	if err != nil {
		return err
	}

	wr, err := opts.Bucket.NewWriter(ctx, source_path, nil)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", source_path, err)
	}

	_, err = opts.Client.Download(ctx, url, wr)

	if err != nil {
		wr.Close()
		return err
	}

	return wr.Close()
}

// projectCubemap runs the external projector against a local staging copy of
// the source image and uploads the resulting cubemap back to the bucket. The
// projector only understands operating-system paths so sources living in
// remote buckets are staged through a scratch directory.
func projectCubemap(ctx context.Context, opts *FetchAndClipOptions, image_id string, source_path string, cubemap_path string) error {

	scratch, err := os.MkdirTemp("", "spherical2images-*")

	if err != nil {
		return fmt.Errorf("Failed to create scratch directory, %w", err)
	}

	defer os.RemoveAll(scratch)

	local_source := filepath.Join(scratch, fmt.Sprintf("%s.jpg", image_id))
	local_cubemap := filepath.Join(scratch, fmt.Sprintf("%s_cubemap.jpg", image_id))

	err = copyToLocal(ctx, opts.Bucket, source_path, local_source)

	if err != nil {
		return err
	}

	err = opts.Converter.EquirectangularToCubemap(ctx, local_source, local_cubemap, opts.ClipSize)

	if err != nil {
		return err
	}

	return copyToBucket(ctx, opts.Bucket, local_cubemap, cubemap_path)
}

func copyToLocal(ctx context.Context, bucket *blob.Bucket, key string, path string) error {

	fh, err := bucket.NewReader(ctx, key, nil)

	if err != nil {
		return fmt.Errorf("Failed to create reader for %s, %w", key, err)
	}

	defer fh.Close()

	wr, err := os.Create(path)

	if err != nil {
		return fmt.Errorf("Failed to create %s, %w", path, err)
	}

	_, err = io.Copy(wr, fh)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to copy %s to %s, %w", key, path, err)
	}

	return wr.Close()
}

func copyToBucket(ctx context.Context, bucket *blob.Bucket, path string, key string) error {

	fh, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("Failed to open %s, %w", path, err)
	}

	defer fh.Close()

	wr, err := bucket.NewWriter(ctx, key, nil)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", key, err)
	}

	_, err = io.Copy(wr, fh)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to copy %s to %s, %w", path, key, err)
	}

	return wr.Close()
}

// sourceCreated returns the EXIF capture time of the image at 'key' as a Unix
// timestamp, or zero. Fetched thumbnails frequently carry no EXIF data at all
// so every failure here is treated as "unknown".
func sourceCreated(ctx context.Context, bucket *blob.Bucket, key string) int64 {

	fh, err := bucket.NewReader(ctx, key, nil)

	if err != nil {
		return 0
	}

	defer fh.Close()

	exif.RegisterParsers(mknote.All...)

	exif_data, err := exif.Decode(fh)

	if err != nil {
		return 0
	}

	tag, err := exif_data.Get("DateTimeOriginal")

	if err != nil {
		return 0
	}

	str_dt := strings.Trim(tag.String(), "\"")

	exif_fmt := "2006:01:02 15:04:05"

	t, err := time.Parse(exif_fmt, str_dt)

	if err != nil {
		return 0
	}

	return t.Unix()
}

// appendTileHashes assigns fingerprint and perceptual hash properties for the
// tile at 'tile_path' to the feature document in 'body'.
func appendTileHashes(ctx context.Context, bucket *blob.Bucket, body []byte, tile_path string) ([]byte, error) {

	fp, err := common.FingerprintTile(ctx, bucket, tile_path)

	if err != nil {
		return nil, err
	}

	body, err = sjson.SetBytes(body, "properties.media:fingerprint", fp)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign properties.media:fingerprint property, %w", err)
	}

	hashes, err := common.TileHashes(ctx, bucket, tile_path)

	if err != nil {
		return nil, err
	}

	for _, h := range hashes {

		k := fmt.Sprintf("properties.media:imagehash_%s", h.Approach)

		body, err = sjson.SetBytes(body, k, h.Hash)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign %s property, %w", k, err)
		}
	}

	return body, nil
}
