package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

// WebSocket message types
const (
	EventRender    = "render"
	EventScan      = "scan"
	EventJobUpdate = "job_update"
	EventResponse  = "response"
	EventError     = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	mu     sync.Mutex
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		fmt.Printf("WebSocket upgrade failed: %v\n", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	fmt.Println("📡 WebSocket client connected")

	// Start goroutines
	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.mu.Lock()
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()

		if err != nil {
			fmt.Printf("WebSocket write error: %v\n", err)
			return
		}
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventRender:
		c.handleRenderEvent(msg.Data)
	case EventScan:
		c.handleScanEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

func (c *WSClient) handleRenderEvent(data map[string]interface{}) {
	// Load sheet from path/URL if provided, otherwise use direct sheet
	var sheet *labelformat.Sheet
	var err error

	// Check for sheet_url first
	if sheetURL, ok := data["sheet_url"].(string); ok && sheetURL != "" {
		sheet, err = labelformat.LoadFromPathOrURL(sheetURL)
		if err != nil {
			c.sendError(fmt.Sprintf("failed to load sheet from URL: %v", err))
			return
		}
	} else if sheetPath, ok := data["sheet_path"].(string); ok && sheetPath != "" {
		// Check for sheet_path
		sheet, err = labelformat.LoadFromPathOrURL(sheetPath)
		if err != nil {
			c.sendError(fmt.Sprintf("failed to load sheet from path: %v", err))
			return
		}
	} else if sheetData, ok := data["sheet"]; ok {
		// Use direct sheet JSON
		sheetBytes, _ := json.Marshal(sheetData)
		var sheetObj labelformat.Sheet
		if err := json.Unmarshal(sheetBytes, &sheetObj); err != nil {
			c.sendError(fmt.Sprintf("invalid sheet: %v", err))
			return
		}
		labelformat.ApplyDefaults(&sheetObj)
		if err := labelformat.Validate(&sheetObj); err != nil {
			c.sendError(fmt.Sprintf("sheet validation failed: %v", err))
			return
		}
		sheet = &sheetObj
	} else {
		c.sendError("sheet, sheet_path, or sheet_url is required")
		return
	}

	// Enqueue render job
	jobID := c.server.queue.Enqueue(sheet)

	c.server.store.Add(history.Entry{
		Kind:        history.KindSheet,
		Value:       sheet.Code.Value,
		Format:      sheet.Code.Format,
		ProductName: sheet.Label.ProductName,
		ExpiryText:  sheet.Label.ExpiryText,
	})

	c.sendResponse(map[string]interface{}{
		"success": true,
		"job_id":  jobID,
	})
}

func (c *WSClient) handleScanEvent(data map[string]interface{}) {
	dataURL, ok := data["image"].(string)
	if !ok || dataURL == "" {
		c.sendError("image is required")
		return
	}

	result, err := c.server.scanDataURL(dataURL)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.sendResponse(map[string]interface{}{
		"success": true,
		"value":   result.Value,
		"format":  result.Format,
	})
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.send <- WSMessage{
		Event: EventResponse,
		Data:  data,
	}
}

// Client tracking for broadcasts
var (
	clients   = make(map[*WSClient]bool)
	clientsMu sync.RWMutex
)

func addClient(client *WSClient) {
	clientsMu.Lock()
	clients[client] = true
	clientsMu.Unlock()
}

func removeClient(client *WSClient) {
	clientsMu.Lock()
	delete(clients, client)
	clientsMu.Unlock()
}

func (c *WSClient) readPump() {
	defer func() {
		removeClient(c)
		c.conn.Close()
		fmt.Println("📡 WebSocket client disconnected")
	}()

	addClient(c)

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) sendError(message string) {
	c.send <- WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	}
}

// BroadcastJobUpdate broadcasts a job status change to all connected clients
func (s *Server) BroadcastJobUpdate(ev jobs.Event) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	data := map[string]interface{}{
		"job_id": ev.JobID,
		"status": ev.Status,
	}
	if ev.Error != "" {
		data["error"] = ev.Error
	}

	message := WSMessage{
		Event: EventJobUpdate,
		Data:  data,
	}

	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer full, skip
		}
	}
}

// PumpJobEvents forwards queue events to WebSocket clients until the
// queue's event channel closes
func (s *Server) PumpJobEvents() {
	for ev := range s.queue.Events() {
		s.BroadcastJobUpdate(ev)
	}
}
