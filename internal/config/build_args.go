package config

import "fmt"

// Set through -ldflags at build time.
var (
	ModuleName = "zksync-wallet"
	Commit     = "< 40 chars git commit hash via ldflags >"
	BuildDate  = "< YYYY-MM-DDTHH:MM:SS+ZZ:ZZ via ldflags >"
)

func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
