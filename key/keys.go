// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Video Hosting API - these keys locate and throttle the remote collection endpoint.
const (
	APIBaseURL   = "api.base_url"
	APITimeout   = "api.timeout"
	APIRateLimit = "api.rate_limit"
)

// Status Synchronization - these keys govern background polling of processing state.
const (
	SyncInterval = "sync.interval"
)

// Media Playback - these keys configure the external player and control surface defaults.
const (
	Player         = "player.default"
	PlayerVolume   = "player.volume"
	PlayerQuality  = "player.quality"
	PlayerAutoplay = "player.autoplay"
)

// History Tracking - these keys configure the persistence of watch progress.
const (
	HistorySave = "history.save"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Terminal User Interface (TUI) - these keys define the primary interactive environment's styling and logic.
const (
	TUIItemSpacing       = "tui.item_spacing"
	TUIControlsHideAfter = "tui.controls_hide_after"
	TUISeekStep          = "tui.seek_step"
	TUIShowURLs          = "tui.show_urls"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
