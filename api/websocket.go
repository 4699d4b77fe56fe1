package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/driver"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebRequest struct {
	Command string `json:"command"` // one protocol line, e.g. "ADD 5 7"
}

type WebResponse struct {
	Status  string `json:"status"` // "success", "error", "processing"
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

// Handler is an interactive console: each websocket message is sent to the
// board as one command and answered with its reply line.
type Handler struct {
	Transport driver.Transport
	mu        sync.Mutex // one command in flight on the board
}

func NewHandler(t driver.Transport) *Handler {
	return &Handler{Transport: t}
}

// conn serializes writes; gorilla/websocket allows one concurrent writer
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var req WebRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			c.send(WebResponse{Status: "error", Message: "Invalid JSON"})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.handleRequest(c, req)
		}()
	}
}

func (c *conn) send(resp WebResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(resp); err != nil {
		logger.Debug("Websocket write failed: %v", err)
	}
}

func (h *Handler) handleRequest(c *conn, req WebRequest) {
	cmd := strings.TrimSpace(req.Command)
	if cmd == "" {
		c.send(WebResponse{Status: "error", Message: "Empty command"})
		return
	}

	// Try to lock for the exchange
	if !h.mu.TryLock() {
		c.send(WebResponse{Status: "error", Message: "Device is busy", Command: cmd})
		return
	}
	defer h.mu.Unlock()

	c.send(WebResponse{Status: "processing", Message: "Command sent. Waiting for reply...", Command: cmd})

	reply, err := driver.SendAndReceive(h.Transport, cmd)
	if err != nil {
		logger.Error("Console command %q failed: %v", cmd, err)
		c.send(WebResponse{Status: "error", Message: err.Error(), Command: cmd})
		return
	}
	if reply == "" {
		c.send(WebResponse{Status: "error", Message: "No reply (timeout)", Command: cmd})
		return
	}

	c.send(WebResponse{Status: "success", Message: "Reply received", Command: cmd, Reply: reply})
}
