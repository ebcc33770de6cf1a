package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/message"
)

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

func newShowCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Write an entry's payload to stdout",
		Long: `Dumps one representation of a history entry to stdout, the primary one
by default. To extract an image:

  clipvault show 42 --kind image > shot.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(&message.Message{
				Type: message.TypeShow,
				ID:   id,
				Kind: kind,
			})
			if err != nil {
				return err
			}
			data, err := resp.DecodePayload()
			if err != nil {
				return fmt.Errorf("payload decode: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "representation to dump: text|files|image|html|rtf (default: primary)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Put a history entry back onto the clipboard",
		Long: `Restores every representation the entry was captured with, so the
application you paste into can pick its preferred format exactly as the
original copy offered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return expectOK(&message.Message{Type: message.TypeRestore, ID: id})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return expectOK(&message.Message{Type: message.TypeRemove, ID: id})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the entire history, pinned entries included",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return expectOK(&message.Message{Type: message.TypeClear})
		},
	}
}

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Exempt an entry from eviction",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return expectOK(&message.Message{Type: message.TypePin, ID: id, Pinned: true})
		},
	}
}

func newUnpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <id>",
		Short: "Make an entry evictable again",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return expectOK(&message.Message{Type: message.TypePin, ID: id, Pinned: false})
		},
	}
}
