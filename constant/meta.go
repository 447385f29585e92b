// Package constant defines immutable application-level identifiers and defaults.
package constant

const (
	// SceneVault is the canonical application identifier used for filesystem paths and settings namespaces.
	SceneVault = "scenevault"

	// Version is the current plugin semantic version string.
	Version = "1.0.0"

	// UserAgent identifies the plugin on outbound requests to asset vendors.
	UserAgent = "SceneVault/" + Version
)
