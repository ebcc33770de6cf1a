// clipvault: clipboard history daemon with multi-format capture and restore.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipvault",
		Short: "Clipboard history capture and restore",
		Long: `clipvault watches the system clipboard, captures every copy across its
representations (text, file lists, images, HTML, RTF), keeps a bounded
deduplicated history, and can restore any past entry back onto the
clipboard exactly as it was offered.

Run "clipvault run" to start the daemon. The other sub-commands talk to
the running daemon over a local socket: "clipvault list", "clipvault
restore <id>", "clipvault search <query>", and so on.

History is memory-only by default; pass --persist (or set persist=true in
the config file) to keep it across restarts in a local SQLite database.

Config file search order (first found wins):
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

All flags can be set via CLIPVAULT_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newSearchCmd(),
		newShowCmd(),
		newRestoreCmd(),
		newRemoveCmd(),
		newClearCmd(),
		newPinCmd(),
		newUnpinCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newPersistenceCmd(),
		newCapacityCmd(),
		newStatusCmd(),
		newEventsCmd(),
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
			fmt.Printf("clipvault %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
