package lens

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Database is a collection of camera and lens descriptions, typically loaded
// from a TOML file.
type Database struct {
	Cameras []*Camera `toml:"cameras"`
	Lenses  []*Lens   `toml:"lenses"`
}

// NewDatabase loads a Database from the TOML file at 'path'.
func NewDatabase(path string) (*Database, error) {

	fh, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s, %w", path, err)
	}

	defer fh.Close()

	return NewDatabaseFromReader(fh)
}

// NewDatabaseFromReader loads a Database from TOML-encoded data in 'r'.
func NewDatabaseFromReader(r io.Reader) (*Database, error) {

	var db Database

	dec := toml.NewDecoder(r)
	err := dec.Decode(&db)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode lens database, %w", err)
	}

	return &db, nil
}

// Camera returns the camera whose model name is 'model'.
func (db *Database) Camera(model string) (*Camera, error) {

	for _, c := range db.Cameras {

		if c.Model == model {
			return c, nil
		}
	}

	return nil, fmt.Errorf("Unknown camera '%s'", model)
}

// Lens returns the lens whose model name is 'model'.
func (db *Database) Lens(model string) (*Lens, error) {

	for _, l := range db.Lenses {

		if l.Model == model {
			return l, nil
		}
	}

	return nil, fmt.Errorf("Unknown lens '%s'", model)
}
