package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, _ []string) {
		info, _ := debug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), versionString(info))
	},
}

// versionString renders the version with the Go toolchain and VCS revision when the binary carries them.
func versionString(info *debug.BuildInfo) string {
	out := fmt.Sprintf("%s version: %s", app, version)
	if info == nil {
		return out
	}

	out += fmt.Sprintf(" (%s", info.GoVersion)
	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		out += ", commit " + revision
		if modified == "true" {
			out += "-dirty"
		}
	}
	return out + ")"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
