package main

// Fetch, convert and clip the spherical images referenced by a GeoJSON
// FeatureCollection, publishing a new collection with one feature per
// produced face tile.

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/developmentseed/go-spherical2images/common"
	"github.com/developmentseed/go-spherical2images/convert"
	"github.com/developmentseed/go-spherical2images/feature"
	"github.com/developmentseed/go-spherical2images/mapillary"
	"github.com/developmentseed/go-spherical2images/operations/process"
	wof_ioutil "github.com/whosonfirst/go-ioutil"
	"github.com/whosonfirst/go-reader/v2"
	"github.com/whosonfirst/go-writer/v3"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	_ "image/jpeg"
	_ "image/png"
)

func main() {

	reader_uri := flag.String("reader-uri", "", "A valid whosonfirst/go-reader URI the input FeatureCollection is read from.")
	features_path := flag.String("features", "", "The path, relative to -reader-uri, of the GeoJSON FeatureCollection to process.")
	writer_uri := flag.String("writer-uri", "", "A valid whosonfirst/go-writer URI the enriched FeatureCollection is published to.")
	output_path := flag.String("output", "", "The path, relative to -writer-uri, the enriched FeatureCollection is written to.")
	output_root := flag.String("output-root", "", "A valid gocloud.dev/blob bucket URI face tiles are written under.")
	clip_size := flag.Int("clip-size", 1024, "The edge length, in pixels, of each (square) face tile.")
	cube_sides := flag.String("cube-sides", "front,back", "A comma-separated list of cube faces to materialize.")
	access_token := flag.String("access-token", os.Getenv("MAPILLARY_ACCESS_TOKEN"), "A valid Mapillary access token.")
	convert360_binary := flag.String("convert360", "convert360", "The path to the convert360 projector binary.")
	hash_tiles := flag.Bool("hash-tiles", false, "Fingerprint and perceptually hash each produced tile.")
	max_workers := flag.Int("max-workers", 0, "The maximum number of features processed concurrently. Defaults to the number of logical CPUs.")

	flag.Parse()

	ctx := context.Background()

	rdr, err := reader.NewReader(ctx, *reader_uri)

	if err != nil {
		log.Fatalf("Failed to create reader, %v", err)
	}

	fh, err := rdr.Read(ctx, *features_path)

	if err != nil {
		log.Fatalf("Failed to read %s, %v", *features_path, err)
	}

	body, err := io.ReadAll(fh)

	fh.Close()

	if err != nil {
		log.Fatalf("Failed to read %s, %v", *features_path, err)
	}

	features, err := feature.Collection(body)

	if err != nil {
		log.Fatalf("Failed to parse FeatureCollection, %v", err)
	}

	bucket, err := common.OpenBucket(ctx, *output_root)

	if err != nil {
		log.Fatalf("Failed to open output root, %v", err)
	}

	defer bucket.Close()

	client, err := mapillary.NewClient(*access_token)

	if err != nil {
		log.Fatalf("Failed to create Mapillary client, %v", err)
	}

	converter := convert.NewCLI(convert.WithBinary(*convert360_binary))

	opts := &process.ProcessImagesOptions{
		Bucket:     bucket,
		Client:     client,
		Converter:  converter,
		ClipSize:   *clip_size,
		Sides:      strings.Split(*cube_sides, ","),
		HashTiles:  *hash_tiles,
		MaxWorkers: *max_workers,
	}

	processed, err := process.ProcessImages(ctx, opts, features)

	if err != nil {
		log.Fatalf("Failed to process features, %v", err)
	}

	fc, err := feature.NewCollection(processed)

	if err != nil {
		log.Fatalf("Failed to assemble FeatureCollection, %v", err)
	}

	wr, err := writer.NewWriter(ctx, *writer_uri)

	if err != nil {
		log.Fatalf("Failed to create writer, %v", err)
	}

	out, err := wof_ioutil.NewReadSeekCloser(bytes.NewReader(fc))

	if err != nil {
		log.Fatalf("Failed to create ReadSeekCloser, %v", err)
	}

	_, err = wr.Write(ctx, *output_path, out)

	if err != nil {
		log.Fatalf("Failed to write %s, %v", *output_path, err)
	}

	log.Printf("Processed %d features in to %d derived features\n", len(features), len(processed))
}
