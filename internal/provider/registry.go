package provider

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("ProviderRegistry")

// Registry is the single source of truth for (provider, raw_model) -> handle
// mappings. Rebuilds construct a fresh Registry and callers atomically
// swap the shared pointer (see Container in container.go) rather than mutating in place.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Handle // namespaced id -> handle
	models    []ModelInfo       // insertion order
	index     map[string]int    // namespaced id -> index into models, for O(1) unregister
	capCache  *lru.Cache[string, bool]
}

// New constructs an empty Registry with its capability-lookup memoization
// cache sized per the teacher's factory.go cacheEntry idiom.
func New() *Registry {
	cache, _ := lru.New[string, bool](1024)
	return &Registry{
		providers: map[string]Handle{},
		index:     map[string]int{},
		capCache:  cache,
	}
}

// Register normalizes info.ID to "provider::raw", wraps handle so ID()
// returns the namespaced id regardless of its own opinion, inserts into
// both maps, and appends to the ordered sequence.
func (r *Registry) Register(info ModelInfo, handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	namespacedID := NamespacedModelID(info.Provider, info.ID)
	if _, exists := r.providers[namespacedID]; exists {
		return
	}
	info.ID = namespacedID
	wrapped := wrapNamespaced(namespacedID, handle)
	r.providers[namespacedID] = wrapped
	r.models = append(r.models, info)
	r.index[namespacedID] = len(r.models) - 1
}

// Unregister removes both entries for id if present.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.index[id]
	if !ok {
		return
	}
	delete(r.providers, id)
	delete(r.index, id)
	r.models = append(r.models[:idx], r.models[idx+1:]...)
	for i := idx; i < len(r.models); i++ {
		r.index[r.models[i].ID] = i
	}
}

// Get resolves id: exact namespaced match first, else among all entries
// sharing id as a raw model id, the one with lowest
// (subscription_preference_rank, insertion_index).
func (r *Registry) Get(id string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.providers[id]; ok {
		return h, true
	}
	var best Handle
	bestRank := 1<<31 - 1
	bestIdx := 1<<31 - 1
	for _, info := range r.models {
		if RawModelID(info.ID) != id {
			continue
		}
		idx := r.index[info.ID]
		rank := SubscriptionPreferenceRank(info.Provider)
		if rank < bestRank || (rank == bestRank && idx < bestIdx) {
			bestRank = rank
			bestIdx = idx
			best = r.providers[info.ID]
		}
	}
	return best, best != nil
}

// First applies the registry's ordering (subscription rank, then insertion
// order) over the full catalog, ignoring tool support.
func (r *Registry) First() (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.firstLocked(nil)
}

// FirstWithTools filters by SupportsTools() first, falling back to First()
// when none qualify.
func (r *Registry) FirstWithTools() (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	filter := func(h Handle) bool { return h.SupportsTools() }
	if h, ok := r.firstLocked(filter); ok {
		return h, true
	}
	return r.firstLocked(nil)
}

func (r *Registry) firstLocked(filter func(Handle) bool) (Handle, bool) {
	bestRank := 1<<31 - 1
	bestIdx := 1<<31 - 1
	var best Handle
	for idx, info := range r.models {
		h := r.providers[info.ID]
		if filter != nil && !filter(h) {
			continue
		}
		rank := SubscriptionPreferenceRank(info.Provider)
		if rank < bestRank || (rank == bestRank && idx < bestIdx) {
			bestRank = rank
			bestIdx = idx
			best = h
		}
	}
	return best, best != nil
}

// Models returns a snapshot of the insertion-ordered catalog.
func (r *Registry) Models() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelInfo, len(r.models))
	copy(out, r.models)
	return out
}

// fallbackBucket classifies a candidate relative to the primary registration
// into one of four ascending buckets.
func fallbackBucket(primaryRawModel, primaryProvider string, candidate ModelInfo) int {
	sameRaw := RawModelID(candidate.ID) == primaryRawModel
	switch {
	case sameRaw && candidate.Provider != primaryProvider:
		return 0
	case IsSubscriptionProvider(candidate.Provider):
		return 1
	case candidate.Provider == primaryProvider:
		return 2
	default:
		return 3
	}
}

// FallbackProvidersFor excludes the primary and ranks the rest into four
// buckets ascending: (0) same raw model, different provider; (1) a
// subscription provider; (2) a different model on the same provider;
// (3) everything else. Ties break on subscription rank, then insertion order.
func (r *Registry) FallbackProvidersFor(primaryID, primaryProvider string) []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primaryRaw := RawModelID(primaryID)
	type ranked struct {
		info   ModelInfo
		bucket int
		subRnk int
		idx    int
	}
	var candidates []ranked
	for idx, info := range r.models {
		if info.ID == primaryID {
			continue
		}
		candidates = append(candidates, ranked{
			info:   info,
			bucket: fallbackBucket(primaryRaw, primaryProvider, info),
			subRnk: SubscriptionPreferenceRank(info.Provider),
			idx:    idx,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].bucket != candidates[j].bucket {
			return candidates[i].bucket < candidates[j].bucket
		}
		if candidates[i].subRnk != candidates[j].subRnk {
			return candidates[i].subRnk < candidates[j].subRnk
		}
		return candidates[i].idx < candidates[j].idx
	})
	out := make([]ModelInfo, len(candidates))
	for i, c := range candidates {
		out[i] = c.info
	}
	return out
}

// CachedSupportsTools memoizes SupportsToolsForModel per (namespaced) model
// id, backed by the same LRU-with-TTL idiom as the teacher's
// internal/infra/llm/factory.go cacheEntry (TTL omitted: capability facts
// are static for a given model id and never need expiry, only eviction
// under memory pressure from cache growth).
func (r *Registry) CachedSupportsTools(modelID string) bool {
	if v, ok := r.capCache.Get(modelID); ok {
		return v
	}
	v := SupportsToolsForModel(modelID)
	r.capCache.Add(modelID, v)
	return v
}
