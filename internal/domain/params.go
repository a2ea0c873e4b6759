package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

var (
	// ErrInvalidGamma is returned for a gamma that is not positive and finite.
	ErrInvalidGamma = errors.New("invalid gamma")

	// ErrInvalidMode is returned for a composite mode other than day or night.
	ErrInvalidMode = errors.New("invalid composite mode")

	// ErrInvalidRange is returned when a normalization range has a
	// non-finite bound.
	ErrInvalidRange = errors.New("invalid input range")
)

// DefaultGamma is the fire-index gamma. The index is raised to 1/gamma,
// so 0.4 expands contrast toward the high (fire) end.
const DefaultGamma = 0.4

// Mode selects which visible bands accompany the fire index.
type Mode string

const (
	ModeDay   Mode = "day"
	ModeNight Mode = "night"
)

// ParseMode accepts "day" or "night", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDay, ModeNight:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want day or night)", ErrInvalidMode, s)
	}
}

// Params is the single processing configuration threaded through the
// band preparer, index compositor, and normalizer. Build it once per
// invocation with DefaultParams and override fields as needed.
type Params struct {
	Gamma    float64
	BitDepth raster.BitDepth
	Mode     Mode
}

// DefaultParams returns gamma 0.4, 16-bit output, day mode.
func DefaultParams() Params {
	return Params{
		Gamma:    DefaultGamma,
		BitDepth: raster.Depth16,
		Mode:     ModeDay,
	}
}

// Validate checks every field. Mode may be empty when only the index is
// computed.
func (p Params) Validate() error {
	if err := validateGamma(p.Gamma); err != nil {
		return err
	}
	if !p.BitDepth.Valid() {
		return fmt.Errorf("%w: %d", raster.ErrInvalidBitDepth, p.BitDepth)
	}
	if p.Mode != "" && p.Mode != ModeDay && p.Mode != ModeNight {
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return nil
}

func validateGamma(g float64) error {
	if math.IsNaN(g) || math.IsInf(g, 0) || g <= 0 {
		return fmt.Errorf("%w: %v (must be positive and finite)", ErrInvalidGamma, g)
	}
	return nil
}
