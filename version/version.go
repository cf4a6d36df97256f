package version

// Version is the semver of the current build. The schema version tracked in
// migration_history only moves on minor releases.
var Version = "0.3.1"

func GetCurrentVersion() string {
	return Version
}
