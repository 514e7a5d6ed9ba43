package scrypted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/novahome/nova-core/core/camera"
)

// Subscribe opens the event websocket and forwards qualifying events until
// the connection drops or ctx is cancelled, then closes the channel. The
// listener reconnects with backoff; this method never retries internally.
func (c *Client) Subscribe(ctx context.Context) (<-chan camera.Event, error) {
	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL,
		http.Header{"Authorization": {"Bearer " + c.token}})
	if err != nil {
		return nil, fmt.Errorf("failed to open event websocket: %w", err)
	}

	events := make(chan camera.Event)
	go func() {
		defer close(events)
		defer conn.Close()

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			var event camera.Event
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil {
					logger.WarnContext(ctx, "event websocket closed", "error", err)
				}
				return
			}
			if !qualifies(event) {
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Events is the poll fallback: fetch events newer than since.
func (c *Client) Events(ctx context.Context, since time.Time) ([]camera.Event, error) {
	path := "/api/events?since=" + strconv.FormatInt(since.UnixMilli(), 10)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var events []camera.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode event list: %w", err)
	}

	qualifying := events[:0]
	for _, event := range events {
		if qualifies(event) {
			qualifying = append(qualifying, event)
		}
	}
	return qualifying, nil
}

func qualifies(event camera.Event) bool {
	switch event.Kind {
	case camera.EventMotion, camera.EventPerson, camera.EventDoorbell:
		return event.DeviceID != ""
	}
	return false
}

func (c *Client) websocketURL() (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid scrypted base url: %w", err)
	}

	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scrypted url scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/api/events/ws"

	return parsed.String(), nil
}
