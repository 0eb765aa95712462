package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/offline"
)

const (
	liveMessageQuery = "query"
	liveMessageClose = "close"
	liveMessageError = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveRequest is the incoming websocket message format.
type liveRequest struct {
	Type      string  `json:"type"` // "query" or "close"
	Query     string  `json:"query"`
	Top       float64 `json:"top"`
	ScrollTop float64 `json:"scroll_top"`
}

// liveResponse is the outgoing websocket message format.
type liveResponse struct {
	Type      string `json:"type"` // "dispose", "show" or "error"
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq,omitempty"`
	HTML      string `json:"html,omitempty"`
	Content   string `json:"content,omitempty"`
}

// handleLiveSearch runs one offline.Session per websocket connection.
func handleLiveSearch(index offline.Querier, renderer *render.Renderer, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "err", err.Error())
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		var writeMu sync.Mutex
		send := func(resp liveResponse) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				logger.Warn("websocket write failed", "err", err.Error())
			}
		}

		var sessionID string
		session := offline.NewSession(logger, index, func(surface offline.Surface) {
			resp := liveResponse{Type: string(surface.Type), SessionID: sessionID, Seq: surface.Seq}
			if surface.Type == offline.SurfaceShow {
				html, err := renderer.PopoverString(surface.Query, surface.Anchor, surface.Results)
				if err != nil {
					logger.Error("could not render offline search results", "err", err.Error())
					send(liveResponse{Type: liveMessageError, SessionID: sessionID, Content: "failed to render results"})
					return
				}
				resp.HTML = html
			}
			send(resp)
		})
		sessionID = session.ID
		logger.Debug("live search session started", "session", sessionID)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("websocket read failed", "session", sessionID, "err", err.Error())
				}
				return
			}

			var req liveRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				send(liveResponse{Type: liveMessageError, SessionID: sessionID, Content: "invalid message format"})
				continue
			}

			switch req.Type {
			case liveMessageQuery:
				anchor := offline.Anchor{Top: req.Top, ScrollTop: req.ScrollTop}
				if err := session.Submit(ctx, req.Query, anchor); err != nil {
					send(liveResponse{Type: liveMessageError, SessionID: sessionID, Content: "search failed"})
				}
			case liveMessageClose:
				// errors are impossible for the empty query
				_ = session.Close(ctx)
			default:
				send(liveResponse{Type: liveMessageError, SessionID: sessionID, Content: "unknown message type: " + req.Type})
			}
		}
	}
}
