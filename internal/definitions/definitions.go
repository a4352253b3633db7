// Package definitions loads the asset definitions that tie upstream DAGs and
// tasks to downstream assets, and answers graph queries over them.
package definitions

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/runbridge/internal/models"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrCycle        = errors.New("asset dependency cycle")
	ErrInvalid      = errors.New("invalid asset definitions")
)

// Mapping ties an asset to an upstream DAG, or to a single task within it
// when TaskID is set.
type Mapping struct {
	DagID  string `yaml:"dag_id"`
	TaskID string `yaml:"task_id,omitempty"`
}

// AssetSpec describes one downstream asset.
type AssetSpec struct {
	Key        models.AssetKey   `yaml:"key"`
	Deps       []models.AssetKey `yaml:"deps,omitempty"`
	Checks     []string          `yaml:"checks,omitempty"`
	AlwaysEmit bool              `yaml:"always_emit,omitempty"`
	Metadata   map[string]any    `yaml:"metadata,omitempty"`
	Mappings   []Mapping         `yaml:"mappings,omitempty"`
}

// File is the on-disk layout of a definitions document.
type File struct {
	Assets []AssetSpec `yaml:"assets"`
}

type taskRef struct {
	dagID  string
	taskID string
}

// Definitions is an immutable, validated view over a set of asset specs.
type Definitions struct {
	specs      map[models.AssetKey]*AssetSpec
	byTask     map[taskRef][]models.AssetKey
	byDag      map[string][]models.AssetKey
	tasksByDag map[string][]string
	dagIDs     []string
	toposorted []models.AssetKey
}

// Load reads and validates a YAML definitions file.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML definitions document.
func Parse(data []byte) (*Definitions, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}
	return New(file.Assets)
}

// New builds Definitions from specs, rejecting duplicate keys, dangling
// dependencies and dependency cycles.
func New(specs []AssetSpec) (*Definitions, error) {
	d := &Definitions{
		specs:      make(map[models.AssetKey]*AssetSpec, len(specs)),
		byTask:     make(map[taskRef][]models.AssetKey),
		byDag:      make(map[string][]models.AssetKey),
		tasksByDag: make(map[string][]string),
	}

	dags := make(map[string]struct{})
	tasks := make(map[taskRef]struct{})

	for idx := range specs {
		spec := specs[idx]
		if spec.Key == "" {
			return nil, fmt.Errorf("%w: asset %d has no key", ErrInvalid, idx)
		}
		if _, exists := d.specs[spec.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate asset key %q", ErrInvalid, spec.Key)
		}
		d.specs[spec.Key] = &spec

		mapped := make(map[Mapping]struct{}, len(spec.Mappings))
		for _, m := range spec.Mappings {
			if m.DagID == "" {
				return nil, fmt.Errorf("%w: asset %q has a mapping without dag_id", ErrInvalid, spec.Key)
			}
			// Repeated mappings would emit the same event twice per run.
			if _, dup := mapped[m]; dup {
				continue
			}
			mapped[m] = struct{}{}
			dags[m.DagID] = struct{}{}
			if m.TaskID == "" {
				d.byDag[m.DagID] = append(d.byDag[m.DagID], spec.Key)
				continue
			}
			ref := taskRef{dagID: m.DagID, taskID: m.TaskID}
			d.byTask[ref] = append(d.byTask[ref], spec.Key)
			if _, seen := tasks[ref]; !seen {
				tasks[ref] = struct{}{}
				d.tasksByDag[m.DagID] = append(d.tasksByDag[m.DagID], m.TaskID)
			}
		}
	}

	for dagID := range dags {
		d.dagIDs = append(d.dagIDs, dagID)
	}
	sort.Strings(d.dagIDs)
	for _, ids := range d.tasksByDag {
		sort.Strings(ids)
	}

	order, err := toposort(d.specs)
	if err != nil {
		return nil, err
	}
	d.toposorted = order

	return d, nil
}

// DagIDs returns every DAG referenced by a mapping, sorted.
func (d *Definitions) DagIDs() []string {
	return append([]string(nil), d.dagIDs...)
}

// TaskIDsInDag returns the mapped task IDs of a DAG, sorted.
func (d *Definitions) TaskIDsInDag(dagID string) []string {
	return append([]string(nil), d.tasksByDag[dagID]...)
}

// AssetsForTask returns the assets mapped to a specific task.
func (d *Definitions) AssetsForTask(dagID, taskID string) []models.AssetKey {
	return append([]models.AssetKey(nil), d.byTask[taskRef{dagID: dagID, taskID: taskID}]...)
}

// AssetsForDag returns the assets mapped to a DAG as a whole.
func (d *Definitions) AssetsForDag(dagID string) []models.AssetKey {
	return append([]models.AssetKey(nil), d.byDag[dagID]...)
}

// AlwaysEmit reports whether key must receive a synthesized event even when
// its task was proxied downstream.
func (d *Definitions) AlwaysEmit(key models.AssetKey) bool {
	spec, ok := d.specs[key]
	return ok && spec.AlwaysEmit
}

// ToposortedAssetKeys returns all assets, upstream before downstream.
func (d *Definitions) ToposortedAssetKeys() []models.AssetKey {
	return append([]models.AssetKey(nil), d.toposorted...)
}

// ChecksForKeys returns the checks whose target asset is in keys.
func (d *Definitions) ChecksForKeys(keys models.AssetKeySet) []models.AssetCheckKey {
	var out []models.AssetCheckKey
	for key := range keys {
		spec, ok := d.specs[key]
		if !ok {
			continue
		}
		for _, name := range spec.Checks {
			out = append(out, models.AssetCheckKey{AssetKey: key, Name: name})
		}
	}
	models.SortCheckKeys(out)
	return out
}
