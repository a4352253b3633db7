package sensor

import (
	"sort"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// sortEvents orders events by timestamp, then by topological rank so that
// upstream assets precede downstream ones at equal timestamps. Keys absent
// from the graph rank after all known keys. The sort is stable.
func (s *Sensor) sortEvents(events []models.Event) []models.Event {
	return SortEvents(events, s.graph.ToposortedAssetKeys())
}

// SortEvents returns a sorted copy of events using toposorted as the rank order.
func SortEvents(events []models.Event, toposorted []models.AssetKey) []models.Event {
	rank := make(map[models.AssetKey]int, len(toposorted))
	for i, key := range toposorted {
		rank[key] = i
	}
	rankOf := func(key models.AssetKey) int {
		if r, ok := rank[key]; ok {
			return r
		}
		return len(toposorted)
	}

	out := make([]models.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return rankOf(out[i].AssetKey) < rankOf(out[j].AssetKey)
	})
	return out
}
