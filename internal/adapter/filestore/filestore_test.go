package filestore

import (
	"bytes"
	"context"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

const sceneJSON = `{
  "scene_id": "mtg-20250812T1200",
  "acquired_at": "2025-08-12T12:00:00Z",
  "bands": {
    "IR_039": [[280, 300], [320, null]],
    "IR_112": [[293.15, 293.15], [293.15, 293.15]]
  }
}`

func TestDecodeScene(t *testing.T) {
	scene, err := DecodeScene(strings.NewReader(sceneJSON))
	require.NoError(t, err)

	assert.Equal(t, "mtg-20250812T1200", scene.ID)
	assert.Equal(t, time.Date(2025, time.August, 12, 12, 0, 0, 0, time.UTC), scene.AcquiredAt)
	assert.Equal(t, []string{domain.BandIR039, domain.BandIR112}, scene.BandNames())

	hot, err := scene.Band(domain.BandIR039)
	require.NoError(t, err)
	assert.Equal(t, raster.Shape{Rows: 2, Cols: 2}, hot.Shape())
	assert.InDelta(t, 320.0, hot.At(1, 0), 0)
	assert.True(t, math.IsNaN(hot.At(1, 1)), "null decodes to NaN")
}

func TestDecodeScene_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed", `{"scene_id":`, "decode scene"},
		{"no bands", `{"scene_id":"s1","bands":{}}`, "no bands"},
		{"ragged band", `{"scene_id":"s1","bands":{"IR_039":[[1,2],[3]]}}`, "IR_039"},
		{"shape mismatch", `{"scene_id":"s1","bands":{"IR_039":[[1,2]],"IR_112":[[1],[2]]}}`, "shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeScene(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncodeScene_RoundTripKeepsMissingSamples(t *testing.T) {
	scene, err := DecodeScene(strings.NewReader(sceneJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeScene(&buf, scene))
	assert.Contains(t, buf.String(), "null")

	again, err := DecodeScene(&buf)
	require.NoError(t, err)
	hot, err := again.Band(domain.BandIR039)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(hot.At(1, 1)))
	assert.InDelta(t, 300.0, hot.At(0, 1), 0)
}

func TestReader_LoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(sceneJSON), 0o600))

	m := observability.NewMetricsForTesting()
	r := NewReader(m)

	scene, err := r.LoadScene(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "mtg-20250812T1200", scene.ID)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SceneFetchDuration))
}

func TestReader_LoadScene_Missing(t *testing.T) {
	r := NewReader(nil)
	_, err := r.LoadScene(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_LoadScene_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(nil).LoadScene(ctx, "unused.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func testComposite(t *testing.T, depth raster.BitDepth) domain.Composite {
	t.Helper()
	shape := raster.Shape{Rows: 2, Cols: 3}
	var channels [3]raster.Quantized
	for i := range channels {
		q, err := raster.NewQuantized(shape, depth)
		require.NoError(t, err)
		for p := 0; p < shape.Len(); p++ {
			q.Set(p, float64(p*(i+1)))
		}
		channels[i] = q
	}
	return domain.Composite{SceneID: "s1", Mode: domain.ModeDay, Channels: channels}
}

func TestWriteComposite_16Bit(t *testing.T) {
	c := testComposite(t, raster.Depth16)
	path := filepath.Join(t.TempDir(), "s1", c.FileName())

	require.NoError(t, WriteComposite(path, c))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := tiff.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	r, g, b, _ := img.At(2, 1).RGBA()
	assert.Equal(t, uint32(5), r)
	assert.Equal(t, uint32(10), g)
	assert.Equal(t, uint32(15), b)
}

func TestWriteComposite_8Bit(t *testing.T) {
	c := testComposite(t, raster.Depth8)
	path := filepath.Join(t.TempDir(), c.FileName())

	require.NoError(t, WriteComposite(path, c))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := tiff.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}

func TestWriteComposite_OpaqueAlphaSample(t *testing.T) {
	tests := []struct {
		name     string
		depth    raster.BitDepth
		wantType image.Image
	}{
		{"8-bit", raster.Depth8, &image.NRGBA{}},
		{"16-bit", raster.Depth16, &image.NRGBA64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testComposite(t, tt.depth)
			path := filepath.Join(t.TempDir(), c.FileName())
			require.NoError(t, WriteComposite(path, c))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			img, err := tiff.Decode(f)
			require.NoError(t, err)

			assert.IsType(t, tt.wantType, img, "unassociated alpha decodes as non-premultiplied")
			b := img.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					_, _, _, a := img.At(x, y).RGBA()
					assert.Equal(t, uint32(0xffff), a, "alpha at (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestWriter_LoadBatch(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := testComposite(t, raster.Depth16)
	products := []domain.Product{
		{Composite: c, OutputPath: filepath.Join(dir, "a", c.FileName())},
		{Composite: c, OutputPath: filepath.Join(dir, "b", c.FileName())},
	}
	require.NoError(t, w.LoadBatch(context.Background(), products))

	for _, p := range products {
		_, err := os.Stat(p.OutputPath)
		require.NoError(t, err)
	}
	leftovers, err := filepath.Glob(filepath.Join(dir, "*", ".composite-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
