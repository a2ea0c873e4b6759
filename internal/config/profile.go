package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"gopkg.in/yaml.v2"
)

/* Example profile file ...

channels:
  VIS_004: {min: 0, max: 100}
  VIS_008: {min: 0, max: 100}
  VIS_016: {min: 0, max: 75}
  VIS_022: {min: 0, max: 100, gamma: 0.8, floor: 1, ceiling: 60000}

*/

type channelYAML struct {
	Min     float64  `yaml:"min"`
	Max     float64  `yaml:"max"`
	Gamma   float64  `yaml:"gamma"`
	Floor   float64  `yaml:"floor"`
	Ceiling *float64 `yaml:"ceiling"`
}

type profileYAML struct {
	Channels map[string]channelYAML `yaml:"channels"`
}

// LoadProfile returns the default visible-band profile, overlaid with the
// channels of the YAML file at path when path is non-empty.
func LoadProfile(path string) (domain.Profile, error) {
	profile := domain.DefaultProfile()
	if path == "" {
		return profile, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %q: %w", path, err)
	}
	return ParseProfile(contents)
}

// ParseProfile overlays YAML channel definitions on the default profile.
func ParseProfile(contents []byte) (domain.Profile, error) {
	var doc profileYAML
	if err := yaml.UnmarshalStrict(contents, &doc); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	profile := domain.DefaultProfile()
	for band, ch := range doc.Channels {
		if ch.Max == 0 && ch.Min == 0 {
			return nil, fmt.Errorf("parse profile: channel %s: max is required", band)
		}
		if ch.Gamma < 0 {
			return nil, fmt.Errorf("parse profile: channel %s: %w: %v", band, domain.ErrInvalidGamma, ch.Gamma)
		}
		profile[band] = domain.ChannelRange{
			InputMin: ch.Min,
			InputMax: ch.Max,
			Gamma:    ch.Gamma,
			Floor:    ch.Floor,
			Ceiling:  ch.Ceiling,
		}
	}
	return profile, nil
}
