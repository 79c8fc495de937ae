package version

var (
	VersionSuffix = "" // eg. DEV
	VersionTag    = "v0.1.0"
	// Set by -ldflags "-X github.com/sagan/auxseed/version.Version=..." on release builds.
	Version string
)

func init() {
	if Version == "" {
		if VersionSuffix == "" {
			Version = VersionTag
		} else {
			Version = VersionTag + "-" + VersionSuffix
		}
	}
}
