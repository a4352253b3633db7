package models

import (
	"sort"
	"strings"
)

// AssetKey identifies a downstream asset as a "/"-separated path.
type AssetKey string

// NewAssetKey joins path segments into an AssetKey.
func NewAssetKey(path ...string) AssetKey {
	return AssetKey(strings.Join(path, "/"))
}

// Path returns the segments of the key.
func (k AssetKey) Path() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), "/")
}

func (k AssetKey) String() string {
	return string(k)
}

// AssetCheckKey identifies a named check that targets an asset.
type AssetCheckKey struct {
	AssetKey AssetKey `json:"asset_key" yaml:"asset_key"`
	Name     string   `json:"name" yaml:"name"`
}

func (k AssetCheckKey) String() string {
	return string(k.AssetKey) + ":" + k.Name
}

// AssetKeySet is an unordered set of asset keys.
type AssetKeySet map[AssetKey]struct{}

// Add inserts keys into the set.
func (s AssetKeySet) Add(keys ...AssetKey) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Has reports whether key is in the set.
func (s AssetKeySet) Has(key AssetKey) bool {
	_, ok := s[key]
	return ok
}

// SortCheckKeys orders check keys by asset key, then check name.
func SortCheckKeys(keys []AssetCheckKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AssetKey != keys[j].AssetKey {
			return keys[i].AssetKey < keys[j].AssetKey
		}
		return keys[i].Name < keys[j].Name
	})
}
