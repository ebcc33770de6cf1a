package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/message"
	"go.klb.dev/clipvault/internal/wire"
)

// roundTrip dials the daemon, sends one command and reads one response.
func roundTrip(msg *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("no clipvault daemon on %s (is \"clipvault run\" running?): %w",
			ipc.SocketPath(), err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return resp, nil
}

// expectOK runs a command that answers with a bare OK.
func expectOK(msg *message.Message) error {
	resp, err := roundTrip(msg)
	if err != nil {
		return err
	}
	if resp.Type != message.TypeOK {
		return fmt.Errorf("unexpected response %s", resp.Type)
	}
	return nil
}

// printEntries renders entries as a table, or raw JSON with jsonOut.
func printEntries(entries []message.Entry, jsonOut bool) error {
	if jsonOut {
		enc, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tAGE\tKIND\tPIN\tPREVIEW\n")
	fmt.Fprintf(tw, "--\t---\t----\t---\t-------\n")
	for _, e := range entries {
		pin := ""
		if e.Pinned {
			pin = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, fmtAge(e.CapturedAt), e.PrimaryKind, pin, e.Preview)
	}
	return tw.Flush()
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
