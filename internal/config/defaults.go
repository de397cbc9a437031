package config

// Folder names created at the library root.
const (
	DefaultInboxDir      = "_inbox"
	DefaultDuplicatesDir = "_duplicates"
)

const (
	defaultLogDir             = "~/.local/share/mediashelf/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultHashCacheEnabled   = true
	defaultPreserveAttributes = true
	defaultSyncProgress       = true
)

// defaultLegacyDirs names the leaf folders of the superseded layout
// (root/YYYY-MM/YYYY-MM-DD/{photos,videos}) that are swept once empty.
var defaultLegacyDirs = []string{"photos", "videos"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	legacy := make([]string, len(defaultLegacyDirs))
	copy(legacy, defaultLegacyDirs)
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			HashCachePath: defaultHashCachePath(),
		},
		Organize: Organize{
			InboxDir:      DefaultInboxDir,
			DuplicatesDir: DefaultDuplicatesDir,
			LegacyDirs:    legacy,
			HashCache:     defaultHashCacheEnabled,
		},
		Sync: Sync{
			PreserveAttributes: defaultPreserveAttributes,
			Progress:           defaultSyncProgress,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
