package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/broadcast"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print status changes as the daemon announces them",
		Long: `Connect to the running daemon's event endpoint and print one line per
wireless debugging status change until interrupted. Changes that happened
before watch connected are not replayed. With --json each line is the raw
event envelope.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if cc.Cfg.EventListenAddr == "" {
		return errors.New("event endpoint is disabled (event_listen_addr is empty)")
	}

	ctx := shutdownContext(cmd.Context(), cc.Logger)
	url := broadcast.EventsURL(cc.Cfg.EventListenAddr)

	cc.Statusf("Watching %s (Ctrl-C to stop)\n", url)

	return watchEvents(ctx, url, os.Stdout, cc.Flags.JSON)
}

// watchEvents prints each event to w until ctx ends or the daemon closes
// the connection.
func watchEvents(ctx context.Context, url string, w io.Writer, asJSON bool) error {
	enc := json.NewEncoder(w)

	return broadcast.Subscribe(ctx, url, func(ev monitor.StatusChangedEvent) error {
		if asJSON {
			return enc.Encode(broadcast.NewEnvelope(ev))
		}

		_, err := fmt.Fprintf(w, "%s  wireless debugging %s\n",
			time.Now().Format(time.TimeOnly), enabledWord(ev.Enabled))

		return err
	})
}
