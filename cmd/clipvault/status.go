package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/message"
	"go.klb.dev/clipvault/internal/wire"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := roundTrip(&message.Message{Type: message.TypeStatus})
			if err != nil {
				return err
			}
			if resp.Status == nil {
				return fmt.Errorf("malformed status response")
			}
			if jsonOut {
				enc, _ := json.MarshalIndent(resp.Status, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printStatus(resp.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printStatus(st *message.StatusInfo) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "State:\t%s\n", st.State)
	fmt.Fprintf(w, "Entries:\t%d / %d\n", st.Entries, st.Capacity)
	persistence := "off"
	if st.Persistence {
		persistence = fmt.Sprintf("on (%s)", st.DBPath)
	}
	fmt.Fprintf(w, "Persistence:\t%s\n", persistence)
	fmt.Fprintf(w, "Device:\t%s\n", st.Device)
	fmt.Fprintf(w, "Socket:\t%s\n", st.Socket)
	_ = w.Flush()
}

func newEventsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream history events until interrupted",
		Long: `Subscribes to the daemon's event feed and prints one line per event:
entries added or removed, history cleared, persistence toggled. This is
the same feed a panel/tray UI consumes.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			conn, err := ipc.Dial()
			if err != nil {
				return fmt.Errorf("no clipvault daemon on %s: %w", ipc.SocketPath(), err)
			}
			wc := wire.New(conn)
			defer wc.Close()

			if err := wc.WriteMsg(&message.Message{Type: message.TypeSubscribe}); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			first, err := wc.ReadMsg()
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			if first.Type != message.TypeOK {
				return fmt.Errorf("subscribe refused: %s", first.Error)
			}

			for {
				msg, err := wc.ReadMsg()
				if err != nil {
					return nil // daemon went away
				}
				if msg.Type != message.TypeEvent || msg.Event == nil {
					continue
				}
				printEvent(msg.Event, jsonOut)
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printEvent(ev *message.Event, jsonOut bool) {
	if jsonOut {
		enc, _ := json.Marshal(ev)
		fmt.Println(string(enc))
		return
	}
	switch ev.Kind {
	case "added":
		if ev.Entry != nil {
			fmt.Printf("added\t#%d\t%s\t%s\n", ev.Entry.ID, ev.Entry.PrimaryKind, ev.Entry.Preview)
		}
	case "removed":
		fmt.Printf("removed\t#%d\n", ev.ID)
	case "cleared":
		fmt.Println("cleared")
	case "persistence":
		fmt.Printf("persistence\t%v\n", ev.Enabled)
	}
}
