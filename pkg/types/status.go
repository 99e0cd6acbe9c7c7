package types

// RootState summarises whether a root currently protects its store path
type RootState string

const (
	// RootStateRegistered means both links exist and the collector link
	// points at the project-local link.
	RootStateRegistered RootState = "registered"

	// RootStateUnregistered means the project-local link exists but the
	// collector cannot reach it: the collector link is missing or points
	// somewhere else.
	RootStateUnregistered RootState = "unregistered"

	// RootStateDangling means the chain is registered but the store path
	// itself no longer exists.
	RootStateDangling RootState = "dangling"
)

// Root describes one named root of a project
type Root struct {
	// Name is the root name, unique within the project root directory
	Name string `json:"name" yaml:"name"`

	// Path is the project-local link, <root_dir>/<name>
	Path string `json:"path" yaml:"path"`

	// StorePath is the current target of the project-local link
	StorePath string `json:"store_path" yaml:"store_path"`

	// CollectorLink is <state_dir>/gcroots/per-user/<user>/<id>-<name>
	CollectorLink string `json:"collector_link" yaml:"collector_link"`

	// CollectorTarget is what CollectorLink points at, empty if it is absent
	CollectorTarget string `json:"collector_target,omitempty" yaml:"collector_target,omitempty"`

	// StoreExists reports whether StorePath resolves on disk
	StoreExists bool `json:"store_exists" yaml:"store_exists"`

	State RootState `json:"state" yaml:"state"`
}

// Registered reports whether the collector can currently reach this root
func (r Root) Registered() bool {
	return r.State != RootStateUnregistered
}
