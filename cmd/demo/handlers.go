package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brunokim/delta/delta"
	"github.com/brunokim/delta/ot"
	"github.com/brunokim/delta/store"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type state struct {
	server *ot.Server
	logger *zap.Logger
	debug  *debugLog
}

func (s *state) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	mux.Handle("/doc", docHTTPHandler{s})
	mux.Handle("/submit", submitHTTPHandler{s})
	mux.Handle("/ws", wsHTTPHandler{s})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ot.ErrRevisionOutOfRange):
		status = http.StatusConflict
	case errors.Is(err, ot.ErrInvalidChange):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type errorResponse struct {
	Error string `json:"error"`
}

// -----

type docResponse struct {
	Rev int          `json:"rev"`
	Doc *delta.Delta `json:"doc"`
}

type docHTTPHandler struct {
	s *state
}

func (h docHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing document id"})
		return
	}
	doc, rev, err := h.s.server.Document(req.Context(), id)
	if err != nil {
		h.s.logger.Error("error reading document", zap.String("doc", id), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docResponse{Rev: rev, Doc: doc})
}

// -----

type submitRequest struct {
	ID     string       `json:"id"`
	Rev    int          `json:"rev"`
	Author string       `json:"author"`
	Delta  *delta.Delta `json:"delta"`
}

type submitHTTPHandler struct {
	s *state
}

func (h submitHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "use POST"})
		return
	}
	submitReq := &submitRequest{}
	if err := json.NewDecoder(req.Body).Decode(submitReq); err != nil {
		h.s.logger.Info("error parsing body in /submit", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	rev, err := h.s.submit(req.Context(), submitReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (s *state) submit(ctx context.Context, req *submitRequest) (store.Revision, error) {
	s.debug.write(map[string]interface{}{
		"Type":    "submit",
		"Request": req,
	})
	rev, err := s.server.Submit(ctx, req.ID, req.Rev, req.Delta, req.Author)
	if err != nil {
		s.logger.Info("rejected change", zap.String("doc", req.ID), zap.Int("rev", req.Rev), zap.Error(err))
		return store.Revision{}, err
	}
	s.debug.write(map[string]interface{}{
		"Type":     "commit",
		"Revision": rev,
	})
	s.debug.sync()
	return rev, nil
}

// -----

// Messages exchanged over the websocket. The server sends "init" once, then
// "revision" for every commit, including the client's own. Clients send
// "submit", and get an "error" back if it's rejected.
type wsMessage struct {
	Type     string          `json:"type"`
	Client   string          `json:"client,omitempty"`
	Rev      int             `json:"rev"`
	Doc      *delta.Delta    `json:"doc,omitempty"`
	Delta    *delta.Delta    `json:"delta,omitempty"`
	Revision *store.Revision `json:"revision,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type wsHTTPHandler struct {
	s *state
}

func (h wsHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing document id"})
		return
	}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.s.logger.Info("error upgrading connection", zap.Error(err))
		return
	}
	newClient(h.s, id, conn).serve(req.Context())
}

// client is a middleman between a websocket connection and the OT server.
type client struct {
	id     string
	docID  string
	conn   *websocket.Conn
	send   chan wsMessage
	s      *state
	logger *zap.Logger
}

func newClient(s *state, docID string, conn *websocket.Conn) *client {
	id := uuid.NewString()
	return &client{
		id:     id,
		docID:  docID,
		conn:   conn,
		send:   make(chan wsMessage, 16),
		s:      s,
		logger: s.logger.With(zap.String("doc", docID), zap.String("client", id)),
	}
}

func (c *client) serve(ctx context.Context) {
	defer c.conn.Close()

	// Subscribe before reading the document, so no revision is missed.
	revs, cancel := c.s.server.Subscribe(c.docID)
	defer cancel()
	doc, rev, err := c.s.server.Document(ctx, c.docID)
	if err != nil {
		c.logger.Error("error reading document", zap.Error(err))
		return
	}
	c.send <- wsMessage{Type: "init", Client: c.id, Rev: rev, Doc: doc}
	c.logger.Info("client connected", zap.Int("rev", rev))

	done := make(chan struct{})
	go c.writePump(revs, rev, done)
	c.readPump(ctx)
	close(done)
	c.logger.Info("client disconnected")
}

// readPump handles submissions. All reads happen in this goroutine.
func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("error reading message", zap.Error(err))
			}
			return
		}
		if msg.Type != "submit" {
			c.reply(wsMessage{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
			continue
		}
		_, err := c.s.submit(ctx, &submitRequest{ID: c.docID, Rev: msg.Rev, Author: c.id, Delta: msg.Delta})
		if err != nil {
			c.reply(wsMessage{Type: "error", Rev: msg.Rev, Error: err.Error()})
		}
	}
}

func (c *client) reply(msg wsMessage) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropped reply", zap.String("type", msg.Type))
	}
}

// writePump forwards replies and committed revisions. All writes happen in
// this goroutine. Revisions at or before the initial one were already part of
// the initial document.
//
// If a write fails the connection is closed, which also stops readPump.
func (c *client) writePump(revs <-chan store.Revision, initRev int, done <-chan struct{}) {
	write := func(msg wsMessage) bool {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Info("error writing message", zap.Error(err))
			c.conn.Close()
			return false
		}
		return true
	}
	for {
		select {
		case msg := <-c.send:
			if !write(msg) {
				return
			}
		case rev, ok := <-revs:
			if !ok {
				return
			}
			if rev.Rev <= initRev {
				continue
			}
			if !write(wsMessage{Type: "revision", Rev: rev.Rev, Revision: &rev}) {
				return
			}
		case <-done:
			return
		}
	}
}
