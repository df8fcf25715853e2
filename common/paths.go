package common

import (
	"fmt"
)

// These path schemes are a contract with downstream tooling and must not
// change. All three are bucket-relative keys under the output root.

// SourcePath returns the bucket key for the fetched equirectangular image.
func SourcePath(sequence_id string, image_id string) string {
	return fmt.Sprintf("%s/%s.jpg", sequence_id, image_id)
}

// CubemapPath returns the bucket key for the intermediate cubemap image.
func CubemapPath(sequence_id string, image_id string) string {
	return fmt.Sprintf("%s/%s_cubemap.jpg", sequence_id, image_id)
}

// TilePath returns the bucket key for the face tile named by 'side'.
func TilePath(sequence_id string, image_id string, side string) string {
	return fmt.Sprintf("%s/%s_%s.jpg", sequence_id, image_id, side)
}
