// Package store defines the capability contract every asset store implements,
// the download result taxonomy and the progress-based liveness policy for transfers.
package store

import (
	"context"
	"errors"

	"github.com/scenevault/scenevault/asset"
)

// ErrStalled reports a transfer cancelled because progress failed to advance
// for a full liveness window. It is distinct from transport failures so the
// UI can explain "stalled" vs. "failed".
var ErrStalled = errors.New("download stalled")

// ErrUnknownStore reports an operation addressed to a store id that is not registered.
var ErrUnknownStore = errors.New("unknown store")

// Status is the terminal state of a download.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusAccessDenied
	StatusStalled
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusAccessDenied:
		return "access denied"
	case StatusStalled:
		return "stalled"
	default:
		return "error"
	}
}

// Result is the outcome of a download: the terminal status and, on success,
// the local URL of the downloaded asset.
type Result struct {
	Status Status `json:"status"`
	URL    string `json:"url"`
}

// ProgressFunc receives transfer progress as a fraction in [0, 1].
type ProgressFunc func(float64)

// Store is the capability interface implemented by every asset provider:
// the remote paginated vendor, the local filesystem crawler and static catalogs.
type Store interface {
	// ID returns the unique store identifier, used as the asset vendor field.
	ID() string

	// Provider describes the store's capabilities to the hosting UI.
	Provider() asset.Provider

	// Categories returns the store's category roots mapped to their sub-paths.
	Categories() map[string][]string

	// Authorized reports whether the store can be queried without credentials.
	Authorized() bool

	// Authenticate exchanges credentials for a session. A transport error
	// leaves the store unauthenticated; there is no retry.
	Authenticate(ctx context.Context, username, password string) error

	// Search returns one page of assets matching the criteria and whether
	// more pages exist. The caller bounds it with a context deadline.
	Search(ctx context.Context, criteria asset.Criteria) ([]*asset.Asset, bool, error)

	// Download transfers an asset into destDir, reporting progress. Liveness
	// is progress-based: the transfer is aborted only when progress stops
	// advancing for a full timeout window, never for being slow.
	Download(ctx context.Context, a *asset.Asset, destDir string, onProgress ProgressFunc) (Result, error)
}

// Configurable is implemented by stores exposing a store-specific settings action.
type Configurable interface {
	Config()
}
