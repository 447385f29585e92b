package asset

// Provider describes a store's capabilities to the hosting browser UI.
type Provider struct {
	Name string `json:"name"`
	Icon string `json:"icon"`

	// EnableCommonCategories merges the provider's categories into the shared category tree.
	EnableCommonCategories bool `json:"enable_common_categories"`

	// Private keeps the provider's categories under its own namespace and
	// excludes it from "All" unless explicitly filtered to.
	Private bool `json:"private"`

	// Configurable exposes a store-specific settings action.
	Configurable bool `json:"configurable"`

	// RefreshSetting and EnableSetting name external settings the host
	// observes to trigger re-listing or provider toggling.
	RefreshSetting string `json:"refresh_setting"`
	EnableSetting  string `json:"enable_setting"`
}
