package models

// Category represents the content type of an item or list
type Category string

const (
	CategoryMovie         Category = "movie"
	CategoryTV            Category = "tv"
	CategoryBook          Category = "book"
	CategoryPodcast       Category = "podcast"
	CategoryAlbum         Category = "album"
	CategoryAnime         Category = "anime"
	CategoryAthlete       Category = "athlete"
	CategorySportingEvent Category = "sportingEvent"
	CategoryCustom        Category = "custom"
)

// Provider identifies the upstream integration an item came from
type Provider string

const (
	ProviderTMDB        Provider = "tmdb"
	ProviderGoogleBooks Provider = "googlebooks"
	ProviderITunes      Provider = "itunes"
	ProviderJikan       Provider = "jikan"
	ProviderSportsDB    Provider = "sportsdb"
	ProviderCustom      Provider = "custom"
	ProviderNone        Provider = "none"
)

// ListKind distinguishes user-published lists from saved recommendation lists
type ListKind string

const (
	ListKindPublished      ListKind = "published"
	ListKindRecommendation ListKind = "recommendation"
)

// SyncStatus represents the replication state of a published list
type SyncStatus string

const (
	SyncStatusLocalOnly SyncStatus = "local-only" // Created before/without auth
	SyncStatusPending   SyncStatus = "pending"    // Local change, push queued or in flight
	SyncStatusSynced    SyncStatus = "synced"     // Remote confirmed
	SyncStatusFailed    SyncStatus = "failed"     // Push gave up; local state kept
)

// WatchedSource represents where a watched-pool entry was imported from
type WatchedSource string

const (
	WatchedSourceLetterboxd WatchedSource = "letterboxd"
	WatchedSourceCSV        WatchedSource = "csv"
	WatchedSourceManual     WatchedSource = "manual"
)
