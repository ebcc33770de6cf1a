package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/engine"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/httpapi"
	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/message"
	"go.klb.dev/clipvault/internal/snapshot"
	"go.klb.dev/clipvault/internal/wire"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipvault daemon: watches the system clipboard, keeps the
bounded history, serves the control socket for the CLI tools and any
panel/tray UI, and optionally mirrors history to SQLite.

Config file search order:
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.Int("capacity", history.DefaultCapacity, "maximum retained history entries")
	f.Bool("persist", false, "keep history across restarts (SQLite)")
	f.String("db", defaultDBPath(), "history database path")
	f.Duration("poll", 250*time.Millisecond, "clipboard poll interval")
	f.Duration("debounce", 120*time.Millisecond, "quiet period before capturing after a change notification")
	f.String("http", "", "read-only HTTP API listen address (empty = disabled)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	dbPath := v.GetString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		slog.Warn("cannot create database directory", "path", dbPath, "err", err)
	}

	dev := clip.New(v.GetDuration("poll"))
	eng := engine.New(engine.Config{
		Capacity: v.GetInt("capacity"),
		Persist:  v.GetBool("persist"),
		DBPath:   dbPath,
		Debounce: v.GetDuration("debounce"),
	}, dev)
	defer eng.Close()

	slog.Info("clipvault starting",
		"version", Version,
		"device", dev.Name(),
		"capacity", v.GetInt("capacity"),
		"persist", eng.PersistenceEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Control socket for the CLI tools and UI collaborators.
	ipcLn, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("ipc listen %s: %w", ipc.SocketPath(), err)
	}
	defer ipcLn.Close()
	slog.Info("control socket listening", "path", ipc.SocketPath())
	go serveIPC(ctx, ipcLn, eng)

	if addr := v.GetString("http"); addr != "" {
		api := httpapi.New(addr, eng, Version)
		api.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = api.Shutdown(sctx)
		}()
	}

	// The watcher is the sole writer into the history store; run it on
	// this goroutine until a shutdown signal arrives.
	eng.Watcher().Run(ctx)

	slog.Info("shutting down")
	return nil
}

func serveIPC(ctx context.Context, ln net.Listener, eng *engine.Engine) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("ipc accept failed", "err", err)
			return
		}
		go handleIPCConn(ctx, conn, eng)
	}
}

func handleIPCConn(ctx context.Context, conn net.Conn, eng *engine.Engine) {
	defer conn.Close()
	wc := wire.New(conn)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}

	if msg.Type == message.TypeSubscribe {
		streamEvents(ctx, wc, eng)
		return
	}

	resp := dispatch(msg, eng)
	if err := wc.WriteMsg(resp); err != nil {
		slog.Debug("ipc response write failed", "err", err)
	}
}

// dispatch executes one command message against the engine.
func dispatch(msg *message.Message, eng *engine.Engine) *message.Message {
	switch msg.Type {
	case message.TypeList:
		return entriesResponse(eng.List(msg.Limit, msg.Offset))

	case message.TypeSearch:
		var entries []*history.Entry
		for e := range eng.Search(msg.Query) {
			entries = append(entries, e)
			if msg.Limit > 0 && len(entries) >= msg.Limit {
				break
			}
		}
		return entriesResponse(entries)

	case message.TypeShow:
		entry, ok := eng.Get(msg.ID)
		if !ok {
			return message.NewError(engine.ErrNotFound)
		}
		kind := snapshotKind(msg.Kind, entry)
		data, ok := entry.Snapshot.Payload(kind)
		if !ok {
			return message.NewError(fmt.Errorf("entry %d has no %q representation", msg.ID, kind))
		}
		return message.NewPayload(data)

	case message.TypeRestore:
		if err := eng.Restore(msg.ID); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeRemove:
		if err := eng.Remove(msg.ID); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeClear:
		eng.Clear()
		return &message.Message{Type: message.TypeOK}

	case message.TypePin:
		if err := eng.SetPinned(msg.ID, msg.Pinned); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypePause:
		eng.Pause()
		return &message.Message{Type: message.TypeOK}

	case message.TypeResume:
		eng.Resume()
		return &message.Message{Type: message.TypeOK}

	case message.TypePersist:
		if err := eng.SetPersistence(msg.Enabled); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeCapacity:
		if msg.Capacity <= 0 {
			return message.NewError(errors.New("capacity must be positive"))
		}
		eng.SetCapacity(msg.Capacity)
		return &message.Message{Type: message.TypeOK}

	case message.TypeStatus:
		st := eng.Status()
		return &message.Message{
			Type: message.TypeStatusResponse,
			Status: &message.StatusInfo{
				Version:     Version,
				State:       st.State,
				Entries:     st.Entries,
				Capacity:    st.Capacity,
				Persistence: st.Persistence,
				DBPath:      st.DBPath,
				Device:      st.Device,
				Socket:      ipc.SocketPath(),
			},
		}

	default:
		return message.NewError(fmt.Errorf("unknown command %q", msg.Type))
	}
}

func snapshotKind(kindStr string, entry *history.Entry) snapshot.Kind {
	if kindStr == "" {
		return entry.Snapshot.PrimaryKind()
	}
	if kind, ok := snapshot.ParseKind(kindStr); ok {
		return kind
	}
	return entry.Snapshot.PrimaryKind()
}

func entriesResponse(entries []*history.Entry) *message.Message {
	out := make([]message.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, httpapi.WireEntry(e))
	}
	return &message.Message{Type: message.TypeEntries, Entries: out}
}

// streamEvents forwards history events to the subscriber until the
// connection drops or the daemon shuts down.
func streamEvents(ctx context.Context, wc *wire.Conn, eng *engine.Engine) {
	id, ch := eng.Subscribe(64)
	defer eng.Unsubscribe(id)

	if err := wc.WriteMsg(&message.Message{Type: message.TypeOK}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			wireEv := &message.Event{
				Kind:    string(ev.Type),
				Seq:     ev.Seq,
				ID:      ev.ID,
				Enabled: ev.Enabled,
			}
			if ev.Entry != nil {
				entry := httpapi.WireEntry(ev.Entry)
				wireEv.Entry = &entry
			}
			if err := wc.WriteMsg(&message.Message{Type: message.TypeEvent, Event: wireEv}); err != nil {
				return
			}
		}
	}
}
