// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/TubeScribe/internal/services"
	"github.com/Corphon/TubeScribe/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketClient 表示一个 WebSocket 客户端连接
type WebSocketClient struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	closed    int32 // 原子操作标志，0=开启，1=关闭
	createdAt time.Time
}

// Close 安全关闭客户端连接
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		client.conn.Close()
	}
}

// SendMessage 非阻塞地排队一条消息，队列满时丢弃
func (client *WebSocketClient) SendMessage(message map[string]interface{}) {
	if atomic.LoadInt32(&client.closed) == 1 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		utils.GetLogger().Warn("WebSocket 消息队列已满，消息被丢弃", map[string]interface{}{
			"session": client.sessionID,
		})
	}
}

// WebSocketManager 统计每个会话的连接
type WebSocketManager struct {
	connections map[string]map[*WebSocketClient]bool // sessionID -> clients
	mutex       sync.RWMutex
}

// NewWebSocketManager 创建连接管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		connections: make(map[string]map[*WebSocketClient]bool),
	}
}

func (manager *WebSocketManager) register(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if manager.connections[client.sessionID] == nil {
		manager.connections[client.sessionID] = make(map[*WebSocketClient]bool)
	}
	manager.connections[client.sessionID][client] = true
}

func (manager *WebSocketManager) unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if clients, exists := manager.connections[client.sessionID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(manager.connections, client.sessionID)
		}
	}
}

// GetStatus 获取连接状态
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	total := 0
	perSession := make(map[string]int, len(manager.connections))
	for id, clients := range manager.connections {
		perSession[id] = len(clients)
		total += len(clients)
	}
	return map[string]interface{}{
		"total_connections": total,
		"sessions":          perSession,
	}
}

// SessionWebSocket 推送会话状态：连接后先收到一次完整快照，之后每次状态变化推送一次
func (h *Handler) SessionWebSocket(c *gin.Context) {
	workspace, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", map[string]interface{}{"error": err.Error()})
		return
	}

	client := &WebSocketClient{
		conn:      conn,
		sessionID: workspace.ID,
		send:      make(chan []byte, 16),
		createdAt: time.Now(),
	}
	h.wsManager.register(client)
	defer h.wsManager.unregister(client)
	defer client.Close()

	updates := workspace.Subscribe()
	defer workspace.Unsubscribe(updates)

	done := make(chan struct{})
	go h.handleWebSocketReads(client, done)
	h.handleWebSocketWrites(client, updates, done)
}

// handleWebSocketReads 处理客户端消息，只支持 ping
func (h *Handler) handleWebSocketReads(client *WebSocketClient, done chan struct{}) {
	defer close(done)

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket 读取错误", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		var message map[string]interface{}
		if err := json.Unmarshal(data, &message); err != nil {
			client.SendMessage(map[string]interface{}{"type": "error", "error": "invalid message"})
			continue
		}
		if message["type"] == "ping" {
			client.SendMessage(map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}
}

// handleWebSocketWrites 唯一的写协程：状态更新、回复消息与心跳
func (h *Handler) handleWebSocketWrites(client *WebSocketClient, updates <-chan services.StateUpdate, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	write := func(messageType int, data []byte) bool {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return client.conn.WriteMessage(messageType, data) == nil
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				// 会话已被移除
				write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			data, err := json.Marshal(map[string]interface{}{
				"type":    "state",
				"event":   update.Event,
				"session": update.SessionID,
				"state":   update.State,
			})
			if err != nil || !write(websocket.TextMessage, data) {
				return
			}

		case data := <-client.send:
			if !write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}

		case <-done:
			return
		}
	}
}
