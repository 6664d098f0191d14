package mooring

var (
	version = "0.1.0" // manually set semantic version number
	commit  string    // automatically set git commit hash

	// Version exposes the binary version with the short commit hash
	// appended when the build sets one.
	Version = func() string {
		if commit != "" {
			return version + "-" + commit
		}
		return version
	}()
)
