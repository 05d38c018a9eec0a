// clipstack: bounded clipboard history with pop/swap/clear.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipstack",
		Short: "Bounded clipboard history with pop/swap/clear",
		Long: `clipstack keeps a bounded history of everything copied to the system
clipboard and puts prior entries back on demand.

Run "clipstack run" to start the daemon. Global hotkeys (by default
Control+Shift+C pops) and the tray menu drive it; "clipstack
pop/swap/clear/reload/status/stop" do the same from a shell against the
running daemon.

Configuration lives at <user config dir>/clipstack/clipstack.conf and is
written with defaults on first run. Edit it and run "clipstack reload"
(or use the tray menu) to apply changes without restarting.

All flags can be set via CLIPSTACK_<FLAG> env vars.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newPopCmd(),
		newSwapCmd(),
		newClearCmd(),
		newReloadCmd(),
		newStatusCmd(),
		newStopCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipstack %s\n", versionString())
		},
	}
}

func versionString() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}
