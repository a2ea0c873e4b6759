package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// ErrMissingBand is returned when a scene lacks a band a computation needs.
var ErrMissingBand = errors.New("missing band")

// Band names as they appear in GOES/MTG products.
const (
	BandIR039  = "IR_039" // ~3.9 µm, hot band
	BandIR112  = "IR_112" // ~10.5 µm, thermal band
	BandVIS004 = "VIS_004"
	BandVIS006 = "VIS_006"
	BandVIS008 = "VIS_008"
	BandVIS016 = "VIS_016"
	BandVIS022 = "VIS_022"
)

// Scene is one acquisition: a set of named, equally shaped bands.
type Scene struct {
	ID         string
	AcquiredAt time.Time
	Bands      map[string]raster.Band
}

// Band returns the named band or ErrMissingBand.
func (s Scene) Band(name string) (raster.Band, error) {
	b, ok := s.Bands[name]
	if !ok {
		return raster.Band{}, fmt.Errorf("%w: %s", ErrMissingBand, name)
	}
	return b, nil
}

// BandNames returns the scene's band names in sorted order.
func (s Scene) BandNames() []string {
	names := make([]string, 0, len(s.Bands))
	for name := range s.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every band shares one shape.
func (s Scene) Validate() error {
	names := s.BandNames()
	shapes := make([]raster.Shape, 0, len(names))
	for _, name := range names {
		shapes = append(shapes, s.Bands[name].Shape())
	}
	if err := raster.SameShape(shapes...); err != nil {
		return fmt.Errorf("scene %s: %w", s.ID, err)
	}
	return nil
}
