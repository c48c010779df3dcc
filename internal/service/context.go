package service

import (
	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/config"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// RequestContext is what every resolver receives alongside the Go context:
// the store, the immutable configuration and the viewer, if any.
// Viewer is nil for anonymous requests.
type RequestContext struct {
	Store  storage.Store
	Config *config.Config
	Viewer *auth.Viewer
}

// Owned returns an ownership resolver bound to the request's store.
func (rc *RequestContext) Owned() *OwnershipResolver {
	return NewOwnershipResolver(rc.Store)
}
