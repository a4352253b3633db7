package definitions

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// toposort orders assets so every dependency precedes its dependents. Ready
// assets are released in lexical order, which makes the result deterministic.
func toposort(specs map[models.AssetKey]*AssetSpec) ([]models.AssetKey, error) {
	indeg := make(map[models.AssetKey]int, len(specs))
	dependents := make(map[models.AssetKey][]models.AssetKey, len(specs))

	for key, spec := range specs {
		if _, ok := indeg[key]; !ok {
			indeg[key] = 0
		}
		seen := make(map[models.AssetKey]struct{}, len(spec.Deps))
		for _, dep := range spec.Deps {
			if _, ok := specs[dep]; !ok {
				return nil, fmt.Errorf("%w: %q depends on %q", ErrUnknownAsset, key, dep)
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			indeg[key]++
			dependents[dep] = append(dependents[dep], key)
		}
	}

	ready := &keyHeap{}
	for key, n := range indeg {
		if n == 0 {
			*ready = append(*ready, key)
		}
	}
	heap.Init(ready)

	order := make([]models.AssetKey, 0, len(specs))
	for ready.Len() > 0 {
		key := heap.Pop(ready).(models.AssetKey)
		order = append(order, key)
		for _, next := range dependents[key] {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != len(specs) {
		var stuck []string
		for key, n := range indeg {
			if n > 0 {
				stuck = append(stuck, string(key))
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}

	return order, nil
}

type keyHeap []models.AssetKey

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x any)        { *h = append(*h, x.(models.AssetKey)) }
func (h *keyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
