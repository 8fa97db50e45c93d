package cmd

import (
	"github.com/spf13/cobra"
)

// Flag values, applied on top of the environment-derived configuration. Empty
// means the flag was not given and the environment value stands
var (
	portFlag        string
	databaseURLFlag string
	packageBaseFlag string
	entryFlag       string
)

func applyFlagOverrides(_ *cobra.Command) {
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if databaseURLFlag != "" {
		cfg.DatabaseURL = databaseURLFlag
	}
	if packageBaseFlag != "" {
		cfg.PackageBaseURL = packageBaseFlag
	}
	if entryFlag != "" {
		cfg.Entry = entryFlag
	}
}
