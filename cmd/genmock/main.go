// Command genmock writes a synthetic scene fixture with a fire hotspot and
// a matching scene-request fixture. It runs the actual domain composite on
// the scene so the printed stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -scene-out data/mock/scene_hotspot.json \
//	  -requests-out data/mock/scene_requests.json \
//	  -rows 64 -cols 64
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/adapter/filestore"
	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	"github.com/jonboulle/clockwork"
)

var acquiredAt = time.Date(2025, time.August, 12, 12, 0, 0, 0, time.UTC)

// Background and hotspot brightness temperatures in Kelvin.
const (
	backgroundThermal = 290.0
	backgroundHot     = 295.0
	hotspotThermal    = 305.0
	hotspotHot        = 360.0
)

type sceneDef struct {
	rows, cols int
	radius     float64

	// every missingStride-th IR_039 sample is written as null; 0 disables.
	missingStride int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sceneOut := flag.String("scene-out", "", "output path for the scene JSON fixture")
	requestsOut := flag.String("requests-out", "", "output path for the scene request fixture")
	rows := flag.Int("rows", 64, "scene rows")
	cols := flag.Int("cols", 64, "scene columns")
	radius := flag.Float64("radius", 6, "hotspot radius in pixels")
	missing := flag.Int("missing-stride", 97, "write every Nth IR_039 sample as null (0 disables)")
	flag.Parse()

	if *sceneOut == "" || *requestsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -scene-out, -requests-out")
	}

	def := sceneDef{rows: *rows, cols: *cols, radius: *radius, missingStride: *missing}
	scene, err := buildScene("mock-hotspot", def)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	if err := writeScene(*sceneOut, scene); err != nil {
		return fmt.Errorf("writing scene fixture: %w", err)
	}
	log.Printf("wrote scene fixture: %s (%dx%d)", *sceneOut, def.rows, def.cols)

	requests := []domain.SceneRequest{
		{SceneID: scene.ID + "-day", URI: *sceneOut, Mode: string(domain.ModeDay), BitDepth: 16},
		{SceneID: scene.ID + "-night", URI: *sceneOut, Mode: string(domain.ModeNight), BitDepth: 8},
		{URI: *sceneOut},
	}
	if err := writeJSON(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s", *requestsOut)

	// Set a fixed clock for reproducible ProducedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(acquiredAt.Add(5 * time.Minute)))
	defer domain.SetClock(nil)

	return printStats(scene)
}

func buildScene(id string, def sceneDef) (domain.Scene, error) {
	n := def.rows * def.cols
	thermal := make([]float64, n)
	hot := make([]float64, n)
	vis := map[string][]float64{
		domain.BandVIS004: make([]float64, n),
		domain.BandVIS006: make([]float64, n),
		domain.BandVIS008: make([]float64, n),
		domain.BandVIS016: make([]float64, n),
		domain.BandVIS022: make([]float64, n),
	}

	cr, cc := float64(def.rows-1)/2, float64(def.cols-1)/2
	for r := 0; r < def.rows; r++ {
		for c := 0; c < def.cols; c++ {
			i := r*def.cols + c
			dist := math.Hypot(float64(r)-cr, float64(c)-cc)

			thermal[i], hot[i] = backgroundThermal, backgroundHot
			if dist <= def.radius {
				// Linear falloff from the hotspot center to its edge.
				w := 1 - dist/def.radius
				thermal[i] += w * (hotspotThermal - backgroundThermal)
				hot[i] += w * (hotspotHot - backgroundHot)
			}
			if def.missingStride > 0 && i%def.missingStride == def.missingStride-1 {
				hot[i] = math.NaN()
			}

			// Reflectance gradients across the scene in percent.
			fr := float64(r) / float64(max(def.rows-1, 1))
			fc := float64(c) / float64(max(def.cols-1, 1))
			vis[domain.BandVIS004][i] = 5 + 40*fc
			vis[domain.BandVIS006][i] = 8 + 45*fc
			vis[domain.BandVIS008][i] = 10 + 50*fr
			vis[domain.BandVIS016][i] = 3 + 60*fr
			vis[domain.BandVIS022][i] = 2 + 30*(fr+fc)/2
		}
	}

	scene := domain.Scene{ID: id, AcquiredAt: acquiredAt, Bands: map[string]raster.Band{}}
	add := func(name string, data []float64) error {
		b, err := raster.NewBand(def.rows, def.cols, data)
		if err != nil {
			return fmt.Errorf("band %s: %w", name, err)
		}
		scene.Bands[name] = b
		return nil
	}
	if err := add(domain.BandIR112, thermal); err != nil {
		return domain.Scene{}, err
	}
	if err := add(domain.BandIR039, hot); err != nil {
		return domain.Scene{}, err
	}
	for name, data := range vis {
		if err := add(name, data); err != nil {
			return domain.Scene{}, err
		}
	}
	return scene, scene.Validate()
}

func writeScene(path string, scene domain.Scene) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := filestore.EncodeScene(f, scene); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// channelStats holds aggregated values of one quantized channel.
type channelStats struct {
	min, max uint16
	nonZero  int
}

func collectStats(q raster.Quantized) channelStats {
	px := q.Uint16()
	s := channelStats{min: math.MaxUint16}
	for _, v := range px {
		s.min = min(s.min, v)
		s.max = max(s.max, v)
		if v > 0 {
			s.nonZero++
		}
	}
	return s
}

func printStats(scene domain.Scene) error {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, mode := range []domain.Mode{domain.ModeDay, domain.ModeNight} {
		for _, depth := range []raster.BitDepth{raster.Depth16, raster.Depth8} {
			p := domain.DefaultParams()
			p.Mode, p.BitDepth = mode, depth

			c, err := domain.BuildComposite(scene, domain.DefaultProfile(), p)
			if err != nil {
				return fmt.Errorf("%s %d-bit composite: %w", mode, depth, err)
			}
			fmt.Printf("\n%s:\n", c.FileName())
			fmt.Printf("  Undefined index pixels: %d\n", c.UndefinedPixels)
			fmt.Printf("  Degenerate index: %t\n", c.DegenerateIndex)
			for i, name := range []string{"R", "G", "B"} {
				s := collectStats(c.Channels[i])
				fmt.Printf("  %s: min=%d max=%d non-zero=%d\n", name, s.min, s.max, s.nonZero)
			}
		}
	}
	return nil
}
