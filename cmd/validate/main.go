// Command validate checks a written fire composite against the scene it was
// built from: file format, dimensions, bit depth, and pixel-by-pixel
// agreement with a fresh in-memory composite.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -scene data/mock/scene_hotspot.json \
//	  -composite out/mock-hotspot/composite_day_fire_16b.tif \
//	  -mode day -bits 16
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/couchcryptid/fire-index-etl/internal/adapter/filestore"
	"github.com/couchcryptid/fire-index-etl/internal/config"
	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/image/tiff"
)

// maxReported caps the per-phase error list.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxReported {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	scenePath := flag.String("scene", "", "scene JSON the composite was built from")
	compositePath := flag.String("composite", "", "composite TIFF to check")
	mode := flag.String("mode", "day", "composite mode (day or night)")
	bits := flag.Int("bits", 16, "bit depth (8 or 16)")
	gamma := flag.Float64("gamma", domain.DefaultGamma, "fire index gamma")
	profilePath := flag.String("profile", "", "optional YAML normalization profile")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := sharedobs.NewLogger(*logLevel, "text")

	if *scenePath == "" || *compositePath == "" {
		flag.Usage()
		logger.Error("missing required flags: -scene, -composite")
		os.Exit(1)
	}

	p := domain.DefaultParams()
	var err error
	if p.BitDepth, err = raster.ParseBitDepth(*bits); err != nil {
		logger.Error("invalid bit depth", "error", err)
		os.Exit(1)
	}
	if p.Mode, err = domain.ParseMode(*mode); err != nil {
		logger.Error("invalid mode", "error", err)
		os.Exit(1)
	}
	p.Gamma = *gamma

	if code := run(logger, *scenePath, *compositePath, *profilePath, p); code != 0 {
		os.Exit(code)
	}
}

func run(logger *slog.Logger, scenePath, compositePath, profilePath string, p domain.Params) int {
	fmt.Println("=== Fire Composite Validation ===")
	fmt.Println()

	// ── Load inputs ──
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		logger.Error("load profile failed", "path", profilePath, "error", err)
		return 1
	}

	scene, err := filestore.NewReader(nil).LoadScene(context.Background(), scenePath)
	if err != nil {
		logger.Error("load scene failed", "path", scenePath, "error", err)
		return 1
	}

	want, err := domain.BuildComposite(scene, profile, p)
	if err != nil {
		logger.Error("build reference composite failed", "error", err)
		return 1
	}

	got, err := loadTIFF(compositePath)
	if err != nil {
		logger.Error("load composite failed", "path", compositePath, "error", err)
		return 1
	}

	// ── Run validation phases ──
	format := validateFormat(got, p.BitDepth)
	phases := []*phase{
		format,
		validateDimensions(got, want.Shape()),
	}
	if format.passed() {
		phases = append(phases, validateChannels(got, want))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors)+ph.dropped)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	shape := want.Shape()
	fmt.Printf("Scene %s: %s, %d undefined index pixels, degenerate index: %t\n",
		scene.ID, shape, want.UndefinedPixels, want.DegenerateIndex)

	// Print detailed errors.
	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if ph.dropped > 0 {
			fmt.Printf("  ... and %d more\n", ph.dropped)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tiff.Decode(f)
}

// ── Validation phases ──

func validateFormat(img image.Image, depth raster.BitDepth) *phase {
	p := &phase{name: "Format and bit depth"}
	switch img.(type) {
	case *image.NRGBA64:
		if depth != raster.Depth16 {
			p.errorf("file is 16-bit RGB, want %d-bit", depth)
		}
	case *image.NRGBA:
		if depth != raster.Depth8 {
			p.errorf("file is 8-bit RGB, want %d-bit", depth)
		}
	default:
		p.errorf("unexpected image type %T", img)
	}
	return p
}

func validateDimensions(img image.Image, want raster.Shape) *phase {
	p := &phase{name: "Dimensions"}
	b := img.Bounds()
	if b.Dy() != want.Rows || b.Dx() != want.Cols {
		p.errorf("file is %dx%d, scene is %s", b.Dy(), b.Dx(), want)
	}
	return p
}

func validateChannels(img image.Image, want domain.Composite) *phase {
	p := &phase{name: "Pixel agreement (index, green, blue)"}
	shape := want.Shape()
	b := img.Bounds()
	if b.Dy() != shape.Rows || b.Dx() != shape.Cols {
		p.errorf("skipped: dimension mismatch")
		return p
	}

	names := [3]string{"index", "green", "blue"}
	for y := 0; y < shape.Rows; y++ {
		for x := 0; x < shape.Cols; x++ {
			got := pixelAt(img, x, y)
			if a := got[3]; a != uint16(want.Depth().Max()) {
				p.errorf("(%d,%d): alpha %d, want opaque", y, x, a)
			}
			for ch := range names {
				if w := want.Channels[ch].At(y, x); got[ch] != w {
					p.errorf("(%d,%d) %s: got %d, want %d", y, x, names[ch], got[ch], w)
				}
			}
		}
	}
	return p
}

// pixelAt returns the raw non-premultiplied RGBA samples at (x, y).
func pixelAt(img image.Image, x, y int) [4]uint16 {
	switch im := img.(type) {
	case *image.NRGBA64:
		c := im.NRGBA64At(x, y)
		return [4]uint16{c.R, c.G, c.B, c.A}
	case *image.NRGBA:
		c := im.NRGBAAt(x, y)
		return [4]uint16{uint16(c.R), uint16(c.G), uint16(c.B), uint16(c.A)}
	default:
		return [4]uint16{}
	}
}
