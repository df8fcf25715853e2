package common

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/corona10/goimagehash"
	"gocloud.dev/blob"
)

// TileHash is a struct representing the results of hashing a tile with a
// single perceptual-hashing approach.
type TileHash struct {
	// String label describing the image hashing procedure used.
	Approach string
	// The hexidecimal hash of the tile.
	Hash string
}

// FingerprintTile generates a SHA-1 hash of a tile stored in a blob.Bucket
// instance.
func FingerprintTile(ctx context.Context, bucket *blob.Bucket, path string) (string, error) {

	fh, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return "", fmt.Errorf("Failed to create reader for %s, %w", path, err)
	}

	defer fh.Close()

	h := sha1.New()

	_, err = io.Copy(h, fh)

	if err != nil {
		return "", fmt.Errorf("Failed to hash %s, %w", path, err)
	}

	hash := h.Sum(nil)
	return hex.EncodeToString(hash[:]), nil
}

// TileHashes generates a list of TileHash instances for a tile stored in a
// blob.Bucket instance, using the corona10/goimagehash package.
func TileHashes(ctx context.Context, bucket *blob.Bucket, path string) ([]*TileHash, error) {

	r, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for %s, %w", path, err)
	}

	defer r.Close()

	im, _, err := image.Decode(r)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode image from %s, %w", path, err)
	}

	approaches := []string{
		"avg",
		"diff",
	}

	done_ch := make(chan bool)
	err_ch := make(chan error)
	rsp_ch := make(chan *TileHash)

	for _, a := range approaches {

		go func(im image.Image, a string) {

			defer func() {
				done_ch <- true
			}()

			rsp, err := tileHash(im, a)

			if err != nil {
				err_ch <- err
				return
			}

			rsp_ch <- rsp

		}(im, a)
	}

	remaining := len(approaches)
	hashes := make([]*TileHash, 0)

	for remaining > 0 {

		select {
		case <-done_ch:
			remaining -= 1
		case err := <-err_ch:
			slog.Error("Tile hash channel received error", "error", err)
		case rsp := <-rsp_ch:
			hashes = append(hashes, rsp)
		}
	}

	return hashes, nil
}

func tileHash(im image.Image, approach string) (*TileHash, error) {

	var h *goimagehash.ImageHash
	var err error

	switch approach {
	case "avg":
		h, err = goimagehash.AverageHash(im)
	case "diff":
		h, err = goimagehash.DifferenceHash(im)
	default:
		err = errors.New("Unknown approach")
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to process image hash approach '%s', %w", approach, err)
	}

	rsp := &TileHash{
		Approach: approach,
		Hash:     h.ToString(),
	}

	return rsp, nil
}
