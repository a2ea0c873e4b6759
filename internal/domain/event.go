package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// ErrInvalidRequest is returned for scene requests that cannot be processed.
var ErrInvalidRequest = errors.New("invalid scene request")

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SceneRequest asks for one composite of one scene. Mode and BitDepth
// are optional and fall back to the service defaults.
type SceneRequest struct {
	SceneID  string `json:"scene_id"`
	URI      string `json:"uri"`
	Mode     string `json:"mode,omitempty"`
	BitDepth int    `json:"bit_depth,omitempty"`
}

// ParseSceneRequest decodes and validates a request message.
func ParseSceneRequest(raw RawEvent) (SceneRequest, error) {
	var req SceneRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SceneRequest{}, fmt.Errorf("parse scene request: %w", err)
	}
	req.URI = strings.TrimSpace(req.URI)
	if req.URI == "" {
		return SceneRequest{}, fmt.Errorf("%w: uri is required", ErrInvalidRequest)
	}
	if req.SceneID == "" {
		req.SceneID = string(raw.Key)
	}
	return req, nil
}

// Params overlays the request's optional fields on defaults.
func (r SceneRequest) Params(defaults Params) (Params, error) {
	p := defaults
	if r.Mode != "" {
		mode, err := ParseMode(r.Mode)
		if err != nil {
			return Params{}, err
		}
		p.Mode = mode
	}
	if r.BitDepth != 0 {
		depth, err := raster.ParseBitDepth(r.BitDepth)
		if err != nil {
			return Params{}, err
		}
		p.BitDepth = depth
	}
	return p, p.Validate()
}

// Product is a composite paired with the path it is written to.
type Product struct {
	Composite  Composite
	OutputPath string
}

// ProductNotice is the sink-topic announcement of a written composite.
type ProductNotice struct {
	SceneID         string    `json:"scene_id"`
	Mode            Mode      `json:"mode"`
	BitDepth        int       `json:"bit_depth"`
	Path            string    `json:"path"`
	Rows            int       `json:"rows"`
	Cols            int       `json:"cols"`
	DegenerateIndex bool      `json:"degenerate_index"`
	UndefinedPixels int       `json:"undefined_pixels"`
	ProducedAt      time.Time `json:"produced_at"`
}

// Notice summarizes the product for downstream consumers.
func (p Product) Notice() ProductNotice {
	shape := p.Composite.Shape()
	return ProductNotice{
		SceneID:         p.Composite.SceneID,
		Mode:            p.Composite.Mode,
		BitDepth:        int(p.Composite.Depth()),
		Path:            p.OutputPath,
		Rows:            shape.Rows,
		Cols:            shape.Cols,
		DegenerateIndex: p.Composite.DegenerateIndex,
		UndefinedPixels: p.Composite.UndefinedPixels,
		ProducedAt:      p.Composite.ProducedAt,
	}
}
