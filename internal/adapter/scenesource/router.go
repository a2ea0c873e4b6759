package scenesource

import (
	"context"
	"strings"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
)

// Router sends http and https URIs to the remote source and everything
// else, including file:// URIs, to the local one.
type Router struct {
	Remote domain.SceneSource
	Local  domain.SceneSource
}

// LoadScene dispatches uri by scheme.
func (r Router) LoadScene(ctx context.Context, uri string) (domain.Scene, error) {
	lower := strings.ToLower(uri)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return r.Remote.LoadScene(ctx, uri)
	}
	return r.Local.LoadScene(ctx, strings.TrimPrefix(uri, "file://"))
}
