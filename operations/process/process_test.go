package process

import (
	"context"
	"fmt"
	"testing"

	"github.com/developmentseed/go-spherical2images/common"
	"github.com/tidwall/gjson"
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

func seedTiles(t *testing.T, bucket *blob.Bucket, sequence_id string, image_id string, sides []string) {

	ctx := context.Background()

	for _, side := range sides {

		err := bucket.WriteAll(ctx, common.TilePath(sequence_id, image_id, side), []byte("jpeg"), nil)

		if err != nil {
			t.Fatalf("Failed to seed tile, %v", err)
		}
	}
}

func testFeature(sequence_id string, image_id string) []byte {
	return []byte(fmt.Sprintf(`{"type":"Feature","properties":{"sequence_id":"%s","id":"%s"},"geometry":{"type":"Point","coordinates":[0,0]}}`, sequence_id, image_id))
}

func TestProcessImages(t *testing.T) {

	ctx := context.Background()
	bucket := openTestBucket(t)

	sides := []string{"front", "back"}

	// Every feature's tiles already exist so processing stays on the fast
	// path and no client or converter is required.

	seedTiles(t, bucket, "seq1", "a", sides)
	seedTiles(t, bucket, "seq1", "b", sides)
	seedTiles(t, bucket, "seq2", "c", sides)

	features := [][]byte{
		testFeature("seq1", "a"),
		testFeature("seq1", "b"),
		testFeature("seq2", "c"),
	}

	opts := &ProcessImagesOptions{
		Bucket:   bucket,
		ClipSize: 50,
		Sides:    sides,
	}

	processed, err := ProcessImages(ctx, opts, features)

	if err != nil {
		t.Fatalf("Failed to process features, %v", err)
	}

	// Flattened: one derived record per (feature, side) pair.

	if len(processed) != len(features)*len(sides) {
		t.Fatalf("Expected %d derived features, got %d", len(features)*len(sides), len(processed))
	}

	for _, body := range processed {

		if len(body) == 0 {
			t.Fatal("Empty record in processed output")
		}

		if !gjson.GetBytes(body, "properties.image_path").Exists() {
			t.Fatal("Derived feature is missing image_path")
		}
	}
}

func TestProcessImagesFailureIsolation(t *testing.T) {

	ctx := context.Background()
	bucket := openTestBucket(t)

	sides := []string{"front"}

	seedTiles(t, bucket, "seq1", "a", sides)

	// The second feature is malformed; it must contribute zero records
	// without aborting the batch.

	features := [][]byte{
		testFeature("seq1", "a"),
		[]byte(`{"type":"Feature","properties":{}}`),
	}

	opts := &ProcessImagesOptions{
		Bucket:   bucket,
		ClipSize: 50,
		Sides:    sides,
	}

	processed, err := ProcessImages(ctx, opts, features)

	if err != nil {
		t.Fatalf("Failed to process features, %v", err)
	}

	if len(processed) != 1 {
		t.Fatalf("Expected 1 derived feature, got %d", len(processed))
	}
}

func TestProcessImagesEmptyBatch(t *testing.T) {

	ctx := context.Background()
	bucket := openTestBucket(t)

	opts := &ProcessImagesOptions{
		Bucket:   bucket,
		ClipSize: 50,
		Sides:    []string{"front"},
	}

	processed, err := ProcessImages(ctx, opts, nil)

	if err != nil {
		t.Fatalf("Failed to process empty batch, %v", err)
	}

	if len(processed) != 0 {
		t.Fatalf("Expected 0 derived features, got %d", len(processed))
	}
}
