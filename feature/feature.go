package feature

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// type Coordinates stores the longitude, latitude pair where an image was
// captured.
type Coordinates []float64

// type Geometry stores the (Point) geometry of an image record.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates Coordinates `json:"coordinates"`
}

// type Properties stores the properties dictionary of an image record.
type Properties map[string]interface{}

// type Feature is the decoded shape of a single image record. Records are
// passed around as raw bytes so that derivation preserves unknown properties;
// the typed form is used to reject documents that are not Feature-shaped.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
}

// SequenceID returns the value of the properties.sequence_id property in 'body'.
func SequenceID(body []byte) (string, error) {

	rsp := gjson.GetBytes(body, "properties.sequence_id")

	if !rsp.Exists() {
		return "", fmt.Errorf("Missing properties.sequence_id")
	}

	return rsp.String(), nil
}

// ImageID returns the value of the properties.id property in 'body'. Numeric
// identifiers are returned in their string form.
func ImageID(body []byte) (string, error) {

	rsp := gjson.GetBytes(body, "properties.id")

	if !rsp.Exists() {
		return "", fmt.Errorf("Missing properties.id")
	}

	return rsp.String(), nil
}

// WithImagePath returns a derived copy of 'body' with its properties.image_path
// property assigned to 'path'. The input document is never modified.
func WithImagePath(body []byte, path string) ([]byte, error) {

	new_body, err := sjson.SetBytes(body, "properties.image_path", path)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign properties.image_path property, %w", err)
	}

	return new_body, nil
}

// Collection returns the raw Feature documents contained in the GeoJSON
// FeatureCollection defined by 'body'. Entries that do not decode as a
// Feature are rejected; entries that merely lack pipeline properties are not.
func Collection(body []byte) ([][]byte, error) {

	rsp := gjson.GetBytes(body, "features")

	if !rsp.Exists() {
		return nil, fmt.Errorf("Missing features")
	}

	if !rsp.IsArray() {
		return nil, fmt.Errorf("Invalid features")
	}

	features := make([][]byte, 0)

	for i, f := range rsp.Array() {

		var ft Feature

		err := json.Unmarshal([]byte(f.Raw), &ft)

		if err != nil {
			return nil, fmt.Errorf("Failed to parse feature at offset %d, %w", i, err)
		}

		features = append(features, []byte(f.Raw))
	}

	return features, nil
}

// NewCollection assembles zero or more raw Feature documents in to a GeoJSON
// FeatureCollection document.
func NewCollection(features [][]byte) ([]byte, error) {

	raw := make([]json.RawMessage, len(features))

	for i, f := range features {
		raw[i] = json.RawMessage(f)
	}

	fc := struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}{
		Type:     "FeatureCollection",
		Features: raw,
	}

	return json.Marshal(fc)
}
