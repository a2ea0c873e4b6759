package domain

import "context"

// SceneSource loads a scene by URI.
type SceneSource interface {
	LoadScene(ctx context.Context, uri string) (Scene, error)
}
