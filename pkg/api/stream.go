// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/telekom/pathmon/internal/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamSession upgrades the request to a websocket and pushes a snapshot
// per controller tick until the client goes away. The window and summary
// query parameters apply to every message.
func (h *Handler) streamSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if _, err := view(h.sessions.Snapshot(), r); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WarnContext(r.Context(), "Failed to upgrade stream", "error", err)
		return
	}
	defer func() {
		if cErr := conn.Close(); cErr != nil {
			log.DebugContext(r.Context(), "Failed to close stream", "error", cErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, cancel)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	snapshots := h.sessions.Subscribe(ctx)
	s, _ := view(h.sessions.Snapshot(), r)
	if err := writeMessage(conn, s); err != nil {
		log.DebugContext(ctx, "Stream closed", "error", err)
		return
	}
	log.DebugContext(ctx, "Streaming session")

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			s, _ := view(snap, r)
			if err := writeMessage(conn, s); err != nil {
				log.DebugContext(ctx, "Stream closed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.DebugContext(ctx, "Stream closed", "error", err)
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// readPump discards client messages and cancels the stream once the
// connection is closed or the client stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
