package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// EventsURL builds the websocket URL for a listen address.
func EventsURL(addr string) string {
	return "ws://" + addr + EventsPath
}

// Subscribe connects to url and calls fn for every status change until ctx
// is cancelled, the server goes away, or fn returns an error. A cancelled
// ctx or a normal close returns nil.
func Subscribe(ctx context.Context, url string, fn func(monitor.StatusChangedEvent) error) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("broadcast: connecting to %s: %w", url, err)
	}
	defer conn.CloseNow()

	for {
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}

			return fmt.Errorf("broadcast: reading event: %w", err)
		}

		ev, err := env.Event()
		if err != nil {
			// Unknown actions are ignored so newer daemons stay compatible.
			continue
		}

		if err := fn(ev); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")

			if errors.Is(err, ErrStop) {
				return nil
			}

			return err
		}
	}
}

// ErrStop can be returned from a Subscribe callback to end the
// subscription without an error.
var ErrStop = errors.New("broadcast: stop")
