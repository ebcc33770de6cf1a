package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/message"
)

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Suspend clipboard monitoring",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return expectOK(&message.Message{Type: message.TypePause})
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume clipboard monitoring",
		Long: `Re-arms the watcher. The current clipboard content becomes the new
baseline without being added to history — whatever was copied while
paused stays unrecorded.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return expectOK(&message.Message{Type: message.TypeResume})
		},
	}
}

func newPersistenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "persistence on|off",
		Short: "Toggle history persistence",
		Long: `With persistence off (the default) history lives in memory only and
nothing survives daemon exit. Turning it on backfills the database with
the current in-memory history; turning it off wipes the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected \"on\" or \"off\", got %q", args[0])
			}
			return expectOK(&message.Message{Type: message.TypePersist, Enabled: enabled})
		},
	}
}

func newCapacityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacity <n>",
		Short: "Set the history capacity",
		Long: `Bounds the number of retained entries. Shrinking below the current
size evicts the oldest unpinned entries immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var n int
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n <= 0 {
				return fmt.Errorf("invalid capacity %q", args[0])
			}
			return expectOK(&message.Message{Type: message.TypeCapacity, Capacity: n})
		},
	}
}
