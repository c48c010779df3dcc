package auth

import (
	"context"

	"github.com/google/uuid"
)

// Viewer is the authenticated identity attached to a request after its token
// verified. Anonymous requests carry no Viewer at all.
type Viewer struct {
	userID uuid.UUID
}

// NewViewer creates a viewer for userID.
func NewViewer(userID uuid.UUID) *Viewer {
	return &Viewer{userID: userID}
}

// UserID is the owning user's identifier.
func (v *Viewer) UserID() uuid.UUID {
	return v.userID
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const viewerKey contextKey = "viewer"

// WithViewer returns a copy of ctx carrying viewer.
func WithViewer(ctx context.Context, viewer *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFromContext extracts the viewer from ctx.
// Returns false for anonymous requests.
func ViewerFromContext(ctx context.Context) (*Viewer, bool) {
	viewer, ok := ctx.Value(viewerKey).(*Viewer)
	if !ok || viewer == nil {
		return nil, false
	}
	return viewer, true
}
