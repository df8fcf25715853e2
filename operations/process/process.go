package process

// Fan a batch of feature records out across a bounded pool of workers, each
// running the full fetch-and-clip pipeline, and flatten whatever derived
// records come back. One bad feature never takes the batch down with it.

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/developmentseed/go-spherical2images/convert"
	"github.com/developmentseed/go-spherical2images/mapillary"
	"github.com/developmentseed/go-spherical2images/operations/fetch"
	"gocloud.dev/blob"
)

// ProcessImagesOptions is a struct containing options for processing a batch
// of feature records.
type ProcessImagesOptions struct {
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
	// produced tile.
	HashTiles bool
	// The maximum number of feature records processed concurrently.
	// Defaults to the number of logical CPUs.
	MaxWorkers int
}

// ProcessImages fetches and clips every feature record independently and
// concurrently, flattening the per-feature results in to a single collection
// of derived feature records. A failure processing one feature is logged and
// contributes zero records; it never aborts the batch. Ordering across
// features is not guaranteed.
func ProcessImages(ctx context.Context, opts *ProcessImagesOptions, features [][]byte) ([][]byte, error) {

	max_workers := opts.MaxWorkers

	if max_workers <= 0 {
		max_workers = runtime.NumCPU()
	}

	fetch_opts := &fetch.FetchAndClipOptions{
		Bucket:    opts.Bucket,
		Client:    opts.Client,
		Converter: opts.Converter,
		ClipSize:  opts.ClipSize,
		Sides:     opts.Sides,
		HashTiles: opts.HashTiles,
	}

	throttle := make(chan bool, max_workers)

	done_ch := make(chan bool)
	rsp_ch := make(chan [][]byte)

	for _, body := range features {

		go func(body []byte) {

			throttle <- true

			defer func() {
				<-throttle
				done_ch <- true
			}()

			results, err := fetch.FetchAndClip(ctx, fetch_opts, body)

			if err != nil {
				slog.Error("Failed to process feature", "error", err)
				return
			}

			rsp_ch <- results

		}(body)
	}

	remaining := len(features)
	processed := make([][]byte, 0)

	for remaining > 0 {

		select {
		case <-done_ch:
			remaining -= 1
		case results := <-rsp_ch:

			for _, body := range results {

				if len(body) == 0 {
					continue
				}

				processed = append(processed, body)
			}
		}
	}

	return processed, nil
}
