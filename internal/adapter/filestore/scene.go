package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// sceneFile is the on-disk scene layout. Bands are row-major grids;
// null samples are missing values.
type sceneFile struct {
	SceneID    string                  `json:"scene_id"`
	AcquiredAt time.Time               `json:"acquired_at"`
	Bands      map[string][][]*float64 `json:"bands"`
}

// DecodeScene reads a JSON scene and checks that all bands share one shape.
func DecodeScene(r io.Reader) (domain.Scene, error) {
	var f sceneFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return domain.Scene{}, fmt.Errorf("decode scene: %w", err)
	}
	if len(f.Bands) == 0 {
		return domain.Scene{}, fmt.Errorf("decode scene %s: no bands", f.SceneID)
	}

	scene := domain.Scene{
		ID:         f.SceneID,
		AcquiredAt: f.AcquiredAt,
		Bands:      make(map[string]raster.Band, len(f.Bands)),
	}
	for name, rows := range f.Bands {
		band, err := raster.FromRows(toFloatRows(rows))
		if err != nil {
			return domain.Scene{}, fmt.Errorf("decode scene %s: band %s: %w", f.SceneID, name, err)
		}
		scene.Bands[name] = band
	}
	if err := scene.Validate(); err != nil {
		return domain.Scene{}, fmt.Errorf("decode scene: %w", err)
	}
	return scene, nil
}

// EncodeScene writes a scene in the layout DecodeScene reads. NaN and
// infinite samples are written as null.
func EncodeScene(w io.Writer, scene domain.Scene) error {
	f := sceneFile{
		SceneID:    scene.ID,
		AcquiredAt: scene.AcquiredAt,
		Bands:      make(map[string][][]*float64, len(scene.Bands)),
	}
	for name, band := range scene.Bands {
		shape := band.Shape()
		rows := make([][]*float64, shape.Rows)
		for r := range rows {
			rows[r] = make([]*float64, shape.Cols)
			for c := range rows[r] {
				if v := band.At(r, c); !math.IsNaN(v) && !math.IsInf(v, 0) {
					rows[r][c] = &v
				}
			}
		}
		f.Bands[name] = rows
	}
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode scene %s: %w", scene.ID, err)
	}
	return nil
}

func toFloatRows(rows [][]*float64) [][]float64 {
	out := make([][]float64, len(rows))
	for r, row := range rows {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			if v == nil {
				out[r][c] = math.NaN()
				continue
			}
			out[r][c] = *v
		}
	}
	return out
}

// Reader loads scenes from local JSON files.
// It implements domain.SceneSource.
type Reader struct {
	metrics *observability.Metrics
}

// NewReader creates a file scene reader. metrics may be nil.
func NewReader(metrics *observability.Metrics) *Reader {
	return &Reader{metrics: metrics}
}

// LoadScene reads the scene file at path.
func (r *Reader) LoadScene(ctx context.Context, path string) (domain.Scene, error) {
	if err := ctx.Err(); err != nil {
		return domain.Scene{}, err
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	scene, err := DecodeScene(f)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("%s: %w", path, err)
	}
	if r.metrics != nil {
		r.metrics.SceneFetchDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	}
	return scene, nil
}
