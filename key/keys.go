// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Store Aggregation - these keys govern the fan-out search across registered asset stores.
const (
	StorePageSize       = "store.page_size"
	StoreSearchTimeout  = "store.search_timeout"
	StoreSingleProvider = "store.single_provider"
)

// Cloud Provider - these keys configure the remote paginated vendor API.
const (
	CloudProviderID      = "cloud.provider_id"
	CloudSearchURL       = "cloud.search_url"
	CloudModelsURL       = "cloud.models_url"
	CloudAuthorizeURL    = "cloud.authorize_url"
	CloudMaxCountPerPage = "cloud.max_count_per_page"
	CloudKeepPageSize    = "cloud.keep_page_size"
	CloudMinThumbnail    = "cloud.min_thumbnail_size"
)

// Local Provider - these keys configure the filesystem crawler.
const (
	LocalFolders          = "local.folders"
	LocalSearchSubFolders = "local.search_sub_folders"
	LocalCategoryDepth    = "local.category_depth"
	LocalFileSuffixes     = "local.file_suffixes"
	LocalThumbnailSize    = "local.thumbnail_size"
)

// Download Pipeline - these keys govern asset transfers and their liveness policy.
const (
	DownloadTimeout = "download.timeout"
	DownloadUnzip   = "download.unzip"
)

// Search Interaction - these keys define the behavior of search discovery.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
)

// Logging Infrastructure - these keys manage the plugin's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)
