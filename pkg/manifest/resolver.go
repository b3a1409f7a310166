package manifest

import (
	"fmt"
	"strings"
	"sync/atomic"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

// Resolver resolves a provider id to its current immutable manifest
// snapshot (§3 "Lifecycle", §5 "Manifest snapshot"). Manifest file
// discovery itself (disk/URL/embedded assets) is out of scope (§1); a
// Resolver implementation is the seam an external loader plugs into.
type Resolver interface {
	Resolve(providerID string) (*Manifest, error)
}

// SplitModel parses a "provider/model" identifier into its two parts.
func SplitModel(model string) (providerID, modelID string, err error) {
	idx := strings.IndexByte(model, '/')
	if idx <= 0 || idx == len(model)-1 {
		return "", "", coreerrors.New(coreerrors.CodeInvalidRequest,
			fmt.Sprintf("model id %q is not in provider/model form", model))
	}
	return model[:idx], model[idx+1:], nil
}

// StaticResolver holds a fixed set of manifests, each behind an atomically
// swappable pointer so a hot-reload (configuration surface `hot_reload`)
// replaces a provider's snapshot without disturbing in-flight calls that
// already captured the old pointer (§5).
type StaticResolver struct {
	slots map[string]*atomic.Pointer[Manifest]
}

// NewStaticResolver builds a resolver from an initial set of manifests
// keyed by provider id.
func NewStaticResolver(manifests map[string]*Manifest) *StaticResolver {
	slots := make(map[string]*atomic.Pointer[Manifest], len(manifests))
	for id, m := range manifests {
		p := &atomic.Pointer[Manifest]{}
		p.Store(m)
		slots[id] = p
	}
	return &StaticResolver{slots: slots}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(providerID string) (*Manifest, error) {
	slot, ok := r.slots[providerID]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeNotFound, "unknown provider: "+providerID)
	}
	return slot.Load(), nil
}

// Reload atomically swaps the snapshot for providerID. In-flight calls that
// already loaded the prior pointer keep using it for the remainder of their
// call (§5 "Manifest snapshot").
func (r *StaticResolver) Reload(providerID string, next *Manifest) error {
	slot, ok := r.slots[providerID]
	if !ok {
		p := &atomic.Pointer[Manifest]{}
		p.Store(next)
		r.slots[providerID] = p
		return nil
	}
	slot.Store(next)
	return nil
}
