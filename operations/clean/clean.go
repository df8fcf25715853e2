package clean

// Remove every generated artifact for an image except the requested face
// tiles, to bound disk (or bucket) usage. This discards the equirectangular
// source, the cubemap intermediate and any leftover tiles from an earlier run
// with a different requested face set.

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/developmentseed/go-spherical2images/common"
	"gocloud.dev/blob"
)

// CleanIntermediatesOptions is a struct containing options for removing
// intermediate files for a single image.
type CleanIntermediatesOptions struct {
	// The gocloud.dev/blob.Bucket rooted at the output location.
	Bucket *blob.Bucket
	// The sequence ID whose directory is cleaned.
	SequenceID string
	// The image ID whose artifacts are cleaned.
	ImageID string
	// The set of named cube faces whose tiles are kept.
	Sides []string
}

// CleanIntermediates deletes every key matching the image's filename prefix
// that is not one of the expected tile paths. Individual delete failures are
// logged and the remaining deletions continue.
func CleanIntermediates(ctx context.Context, opts *CleanIntermediatesOptions) error {

	logger := slog.Default()
	logger = logger.With("sequence id", opts.SequenceID)
	logger = logger.With("image id", opts.ImageID)

	expected := make(map[string]bool)

	for _, side := range opts.Sides {
		expected[common.TilePath(opts.SequenceID, opts.ImageID, side)] = true
	}

	prefix := fmt.Sprintf("%s/%s", opts.SequenceID, opts.ImageID)

	iter := opts.Bucket.List(&blob.ListOptions{
		Prefix: prefix,
	})

	for {

		obj, err := iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("Failed to list keys with prefix %s, %w", prefix, err)
		}

		if expected[obj.Key] {
			continue
		}

		err = opts.Bucket.Delete(ctx, obj.Key)

		if err != nil {
			logger.Error("Failed to delete key", "key", obj.Key, "error", err)
		}
	}

	return nil
}
