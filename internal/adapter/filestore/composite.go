package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"golang.org/x/image/tiff"
)

// Writer stores composites as RGB TIFF files.
// It implements pipeline.BatchLoader.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a composite writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// LoadBatch writes every product to its OutputPath.
func (w *Writer) LoadBatch(ctx context.Context, products []domain.Product) error {
	for i := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := WriteComposite(products[i].OutputPath, products[i].Composite); err != nil {
			return err
		}
		w.logger.Debug("composite written",
			"scene_id", products[i].Composite.SceneID,
			"path", products[i].OutputPath,
		)
	}
	return nil
}

// WriteComposite encodes c as a Deflate-compressed TIFF at path, creating
// parent directories as needed. The file is written to a temporary name
// and renamed into place so readers never see a partial image.
//
// Pixels are stored as four samples, RGB plus an opaque unassociated alpha.
func WriteComposite(path string, c domain.Composite) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".composite-*.tif")
	if err != nil {
		return fmt.Errorf("create composite file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := tiff.Encode(tmp, c.Image(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode composite %s: %w", c.SceneID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close composite file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename composite file: %w", err)
	}
	return nil
}
