package domain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// ErrChannelCount is returned when a composite is not built from exactly
// three channels.
var ErrChannelCount = errors.New("composite needs exactly three channels")

// ChannelRange is the normalization of one visible band. A zero Gamma
// means linear.
type ChannelRange struct {
	InputMin float64
	InputMax float64
	Gamma    float64
	Floor    float64
	Ceiling  *float64
}

// Params returns the NormalizeBand parameters for the given depth.
func (r ChannelRange) Params(depth raster.BitDepth) NormalizationParams {
	gamma := r.Gamma
	if gamma == 0 {
		gamma = 1
	}
	return NormalizationParams{
		InputMin: r.InputMin,
		InputMax: r.InputMax,
		Gamma:    gamma,
		BitDepth: depth,
		Floor:    r.Floor,
		Ceiling:  r.Ceiling,
	}
}

// Profile maps visible band names to their normalization.
type Profile map[string]ChannelRange

// DefaultProfile is the reference visible normalization: percent
// reflectance over 0..100, except VIS_016 over 0..75.
func DefaultProfile() Profile {
	return Profile{
		BandVIS004: {InputMax: 100, Gamma: 1},
		BandVIS006: {InputMax: 100, Gamma: 1},
		BandVIS008: {InputMax: 100, Gamma: 1},
		BandVIS016: {InputMax: 75, Gamma: 1},
		BandVIS022: {InputMax: 100, Gamma: 1},
	}
}

// Range returns the normalization for band, or ErrMissingBand.
func (p Profile) Range(band string) (ChannelRange, error) {
	r, ok := p[band]
	if !ok {
		return ChannelRange{}, fmt.Errorf("%w: no profile entry for %s", ErrMissingBand, band)
	}
	return r, nil
}

// VisibleBands returns the green and blue band names for a mode: day
// uses VIS_008 and VIS_004, night uses VIS_022 and VIS_016.
func VisibleBands(mode Mode) (green, blue string, err error) {
	switch mode {
	case ModeDay:
		return BandVIS008, BandVIS004, nil
	case ModeNight:
		return BandVIS022, BandVIS016, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// Composite is a three-channel image: fire index in red, two visible
// bands in green and blue.
type Composite struct {
	SceneID    string
	Mode       Mode
	Channels   [3]raster.Quantized
	ProducedAt time.Time

	// DegenerateIndex is set when every defined ratio pixel was equal, so
	// the index channel is all zeros.
	DegenerateIndex bool
	UndefinedPixels int
}

// Stack checks that exactly three channels share shape and depth.
func Stack(channels ...raster.Quantized) ([3]raster.Quantized, error) {
	var out [3]raster.Quantized
	if len(channels) != len(out) {
		return out, fmt.Errorf("%w: got %d", ErrChannelCount, len(channels))
	}
	for i, ch := range channels {
		if err := raster.SameShape(channels[0].Shape(), ch.Shape()); err != nil {
			return out, fmt.Errorf("stack channel %d: %w", i, err)
		}
		if ch.Depth() != channels[0].Depth() {
			return out, fmt.Errorf("stack channel %d: %w: %d-bit vs %d-bit",
				i, raster.ErrInvalidBitDepth, ch.Depth(), channels[0].Depth())
		}
		out[i] = ch
	}
	return out, nil
}

// BuildComposite derives the fire index from the scene's IR bands,
// normalizes the mode's two visible bands with profile, and stacks them.
func BuildComposite(scene Scene, profile Profile, p Params) (Composite, error) {
	if err := p.Validate(); err != nil {
		return Composite{}, err
	}
	green, blue, err := VisibleBands(p.Mode)
	if err != nil {
		return Composite{}, err
	}

	thermalRaw, err := scene.Band(BandIR112)
	if err != nil {
		return Composite{}, err
	}
	hotRaw, err := scene.Band(BandIR039)
	if err != nil {
		return Composite{}, err
	}
	if err := raster.SameShape(thermalRaw.Shape(), hotRaw.Shape()); err != nil {
		return Composite{}, fmt.Errorf("scene %s: fire index: %w", scene.ID, err)
	}

	ratio, err := SignedRatio(PrepareThermalIR(thermalRaw), PrepareHotIR(hotRaw))
	if err != nil {
		return Composite{}, err
	}
	ext, ok := ComputeExtrema(ratio)
	index, err := ApplyIndexMapping(ratio, ext, p)
	if err != nil {
		return Composite{}, err
	}

	g, err := normalizeVisible(scene, profile, green, p.BitDepth)
	if err != nil {
		return Composite{}, err
	}
	b, err := normalizeVisible(scene, profile, blue, p.BitDepth)
	if err != nil {
		return Composite{}, err
	}

	channels, err := Stack(index, g, b)
	if err != nil {
		return Composite{}, fmt.Errorf("scene %s: %w", scene.ID, err)
	}

	return Composite{
		SceneID:         scene.ID,
		Mode:            p.Mode,
		Channels:        channels,
		ProducedAt:      clock.Now().UTC(),
		DegenerateIndex: !ok || ext.Degenerate(),
		UndefinedPixels: ratio.Len() - ratio.DefinedCount(),
	}, nil
}

func normalizeVisible(scene Scene, profile Profile, name string, depth raster.BitDepth) (raster.Quantized, error) {
	band, err := scene.Band(name)
	if err != nil {
		return raster.Quantized{}, err
	}
	r, err := profile.Range(name)
	if err != nil {
		return raster.Quantized{}, err
	}
	q, err := NormalizeBand(band, r.Params(depth))
	if err != nil {
		return raster.Quantized{}, fmt.Errorf("normalize %s: %w", name, err)
	}
	return q, nil
}

// Shape returns the composite dimensions.
func (c Composite) Shape() raster.Shape { return c.Channels[0].Shape() }

// Depth returns the bit depth shared by all channels.
func (c Composite) Depth() raster.BitDepth { return c.Channels[0].Depth() }

// FileName is the output name, e.g. composite_day_fire_16b.tif.
func (c Composite) FileName() string {
	return fmt.Sprintf("composite_%s_fire_%db.tif", c.Mode, c.Depth())
}

// Image renders the composite as an opaque RGB image: *image.NRGBA64 for
// 16-bit composites, *image.NRGBA for 8-bit ones.
func (c Composite) Image() image.Image {
	shape := c.Shape()
	rect := image.Rect(0, 0, shape.Cols, shape.Rows)
	r, g, b := c.Channels[0], c.Channels[1], c.Channels[2]

	if c.Depth() == raster.Depth8 {
		img := image.NewNRGBA(rect)
		for y := 0; y < shape.Rows; y++ {
			for x := 0; x < shape.Cols; x++ {
				img.SetNRGBA(x, y, color.NRGBA{
					R: uint8(r.At(y, x)),
					G: uint8(g.At(y, x)),
					B: uint8(b.At(y, x)),
					A: 0xff,
				})
			}
		}
		return img
	}

	img := image.NewNRGBA64(rect)
	for y := 0; y < shape.Rows; y++ {
		for x := 0; x < shape.Cols; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: r.At(y, x),
				G: g.At(y, x),
				B: b.At(y, x),
				A: 0xffff,
			})
		}
	}
	return img
}
