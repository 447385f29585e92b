// Package config provides centralized management for plugin settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"strings"

	"github.com/scenevault/scenevault/constant"
	"github.com/scenevault/scenevault/key"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.SceneVault + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values,
// so the host settings dialog can render the full field state.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.StorePageSize, 50, "Number of assets requested per browser page across all stores")
	register(key.StoreSearchTimeout, 60, "Per-store search timeout in seconds.\nA store exceeding it is dropped from the current page, the others are unaffected")
	register(key.StoreSingleProvider, false, "Drive pagination one concurrent step per store instead of one bulk registry call per page")

	register(key.CloudProviderID, "ArtecCloud", "Identifier of the remote cloud vendor store")
	register(key.CloudSearchURL, "https://cloud.artec3d.com/api/projects/search", "Vendor search endpoint")
	register(key.CloudModelsURL, "https://cloud.artec3d.com/api/models", "Vendor model resolution endpoint used to obtain signed download URLs")
	register(key.CloudAuthorizeURL, "https://cloud.artec3d.com/api/sessions", "Vendor credential exchange endpoint")
	register(key.CloudMaxCountPerPage, 24, "Vendor-documented maximum number of results per page request")
	register(key.CloudKeepPageSize, true, "Cap requested page sizes to the vendor maximum instead of forwarding them untouched")
	register(key.CloudMinThumbnail, 256, "Minimum thumbnail edge size in pixels when picking among vendor-supplied images")

	register(key.LocalFolders, []string{}, "Root folders scanned by the local asset store")
	register(key.LocalSearchSubFolders, true, "Match category filters by prefix so assets in sub folders are included")
	register(key.LocalCategoryDepth, 3, "Number of path segments kept when deriving a category from an asset's location under its root")
	register(key.LocalFileSuffixes, []string{".usd", ".usda", ".usdc", ".usdz"}, "File suffix allow-list for the local crawler")
	register(key.LocalThumbnailSize, 256, "Edge size of the conventional .thumbs/<size>x<size> folder searched for asset thumbnails")

	register(key.DownloadTimeout, 600, "Download liveness window in seconds.\nA transfer is cancelled only after progress fails to advance for a full window, never for being slow")
	register(key.DownloadUnzip, true, "Extract zip archives after download")

	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
}
