package lens

import (
	"strings"
	"testing"
)

const test_database = `
[[cameras]]
maker = "GoPro"
model = "HERO4 Silver"
crop_factor = 7.66

[[lenses]]
maker = "GoPro"
model = "HERO4 Silver & compatibles"
crop_factor = 7.66

[[lenses.calibrations]]
focal_length = 3.0
model = "ptlens"
a = -0.044
b = 0.123
c = -0.312

[[lenses.calibrations]]
focal_length = 5.0
model = "poly3"
k1 = -0.025
`

func TestNewDatabaseFromReader(t *testing.T) {

	db, err := NewDatabaseFromReader(strings.NewReader(test_database))

	if err != nil {
		t.Fatalf("Failed to load database, %v", err)
	}

	cam, err := db.Camera("HERO4 Silver")

	if err != nil {
		t.Fatalf("Failed to find camera, %v", err)
	}

	if cam.CropFactor != 7.66 {
		t.Fatalf("Unexpected crop factor %f", cam.CropFactor)
	}

	l, err := db.Lens("HERO4 Silver & compatibles")

	if err != nil {
		t.Fatalf("Failed to find lens, %v", err)
	}

	if len(l.Calibrations) != 2 {
		t.Fatalf("Expected 2 calibrations, got %d", len(l.Calibrations))
	}
}

func TestDatabaseUnknown(t *testing.T) {

	db, err := NewDatabaseFromReader(strings.NewReader(test_database))

	if err != nil {
		t.Fatalf("Failed to load database, %v", err)
	}

	_, err = db.Camera("nope")

	if err == nil {
		t.Fatal("Expected error for unknown camera")
	}

	_, err = db.Lens("nope")

	if err == nil {
		t.Fatal("Expected error for unknown lens")
	}
}

func TestCalibrationFor(t *testing.T) {

	db, err := NewDatabaseFromReader(strings.NewReader(test_database))

	if err != nil {
		t.Fatalf("Failed to load database, %v", err)
	}

	l, _ := db.Lens("HERO4 Silver & compatibles")

	c, err := l.calibrationFor(3.2)

	if err != nil {
		t.Fatalf("Failed to select calibration, %v", err)
	}

	if c.FocalLength != 3.0 {
		t.Fatalf("Expected 3.0mm calibration, got %f", c.FocalLength)
	}

	c, _ = l.calibrationFor(10)

	if c.FocalLength != 5.0 {
		t.Fatalf("Expected 5.0mm calibration, got %f", c.FocalLength)
	}
}

func TestCalibrationForEmpty(t *testing.T) {

	l := &Lens{Model: "bare"}

	_, err := l.calibrationFor(3)

	if err == nil {
		t.Fatal("Expected error for lens with no calibrations")
	}
}
