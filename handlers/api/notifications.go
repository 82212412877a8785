package api

import (
	"bufio"
	"encoding/json"
	"sync"
	"time"

	"memoryshare/models"
	"memoryshare/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// Notification is a real-time event pushed to gallery clients
type Notification struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"` // "new_memory", "memory_deleted"
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Time    time.Time              `json:"time"`
}

// NotificationHandler broadcasts memory events over SSE and WebSocket
type NotificationHandler struct {
	subscribers map[string]chan Notification
	mu          sync.RWMutex
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{
		subscribers: make(map[string]chan Notification),
	}
}

// HandleSSE streams notifications as Server-Sent Events
func (h *NotificationHandler) HandleSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	subscriberID := uuid.New().String()
	messageChan := make(chan Notification, 10)

	h.mu.Lock()
	h.subscribers[subscriberID] = messageChan
	h.mu.Unlock()

	utils.Log.Info("SSE subscriber connected: %s", subscriberID)

	ctx := c.Context()
	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.mu.Lock()
			delete(h.subscribers, subscriberID)
			close(messageChan)
			h.mu.Unlock()

			utils.Log.Info("SSE subscriber disconnected: %s", subscriberID)
		}()

		// Keep-alive ticker
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case notification := <-messageChan:
				data, _ := json.Marshal(notification)
				w.WriteString("data: " + string(data) + "\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				w.WriteString(": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}))

	return nil
}

// HandleWebSocket streams notifications over a WebSocket connection
func (h *NotificationHandler) HandleWebSocket(c *websocket.Conn) {
	subscriberID := uuid.New().String()
	messageChan := make(chan Notification, 10)

	h.mu.Lock()
	h.subscribers[subscriberID] = messageChan
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subscribers, subscriberID)
		close(messageChan)
		h.mu.Unlock()

		c.Close()
		utils.Log.Info("WebSocket subscriber disconnected: %s", subscriberID)
	}()

	utils.Log.Info("WebSocket subscriber connected: %s", subscriberID)

	for notification := range messageChan {
		if err := c.WriteJSON(notification); err != nil {
			utils.Log.Error("Failed to send WebSocket notification: %v", err)
			break
		}
	}
}

// Broadcast sends a notification to all subscribers
func (h *NotificationHandler) Broadcast(notification Notification) {
	notification.ID = uuid.New().String()
	notification.Time = time.Now()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for subscriberID, ch := range h.subscribers {
		select {
		case ch <- notification:
		default:
			// Channel full, skip this subscriber
			utils.Log.Warn("Notification channel full for subscriber %s", subscriberID)
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *NotificationHandler) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// NotifyNewMemory broadcasts a new-memory event
func (h *NotificationHandler) NotifyNewMemory(memory *models.Memory) {
	h.Broadcast(Notification{
		Type:    "new_memory",
		Message: "New memory shared",
		Data: map[string]interface{}{
			"memory_id": memory.ID,
			"title":     memory.Title,
			"tags":      memory.Tags,
		},
	})
}

// NotifyMemoryDeleted broadcasts a deleted-memory event
func (h *NotificationHandler) NotifyMemoryDeleted(memoryID string) {
	h.Broadcast(Notification{
		Type:    "memory_deleted",
		Message: "Memory deleted",
		Data: map[string]interface{}{
			"memory_id": memoryID,
		},
	})
}
