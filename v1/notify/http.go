package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// watch resolves the request's subscription target: an exact resource from
// the "resource" query parameter, or a tenant prefix from "prefix" (the
// empty string observes every resource on the bus).
func watch(ctx context.Context, bus Bus, r *http.Request) (chan Event, string, chan Event, error) {
	if prefix, ok := r.URL.Query()["prefix"]; ok {
		p := ""
		if len(prefix) > 0 {
			p = prefix[0]
		}
		ch, err := bus.WatchTenant(ctx, p)
		return ch, p, ch, err
	}
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		resource = r.URL.Query().Get("key")
	}
	if resource == "" {
		return nil, "", nil, errMissingTarget
	}
	ch, err := bus.Watch(ctx, resource)
	return ch, resource, ch, err
}

var errMissingTarget = fmt.Errorf("notify: request must set \"resource\" or \"prefix\"")

// SSEHandler streams Bus events over Server-Sent Events as JSON lines. A
// watcher names its target with the "resource" query parameter for a
// single lock, or "prefix" to observe every resource under a tenant's
// hash tag ("prefix=" observes the whole bus).
func SSEHandler(bus Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		ch, key, unwatchCh, err := watch(ctx, bus, r)
		if err != nil {
			cancel()
			if err == errMissingTarget {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			cancel()
			_ = bus.Unwatch(context.Background(), key, unwatchCh)
		}()
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "stream unsupported", http.StatusInternalServerError)
			return
		}
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			case <-ctx.Done():
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{}

// WebSocketHandler streams Bus events over WebSocket as JSON messages.
// Target selection mirrors SSEHandler's "resource"/"prefix" parameters.
func WebSocketHandler(bus Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		ch, key, unwatchCh, err := watch(ctx, bus, r)
		if err != nil {
			cancel()
			if err == errMissingTarget {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cancel()
			_ = bus.Unwatch(context.Background(), key, unwatchCh)
			return
		}
		defer conn.Close()
		defer func() {
			cancel()
			_ = bus.Unwatch(context.Background(), key, unwatchCh)
		}()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
