package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/live"
	"github.com/classpulse/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// Envelope is the WebSocket message frame for both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	role models.Role // set by the hub once the connection joins

	hub    *Hub
	svc    *live.Service
	conn   *websocket.Conn
	send   chan Envelope
	logger *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. The live
// service replays the active poll to the new connection before any commands
// are read.
func ServeWs(hub *Hub, svc *live.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			hub:    hub,
			svc:    svc,
			conn:   conn,
			send:   make(chan Envelope, 256),
			logger: logger,
		}
		hub.Register(client)
		go client.writePump()
		svc.Connected(client.ID)
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.svc.Disconnected(c.ID)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg Envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "teacher_join":
			c.hub.SetRole(c.ID, models.RoleTeacher)
			c.svc.TeacherJoin(c.ID)
		case "student_join":
			var payload struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			c.hub.SetRole(c.ID, models.RoleStudent)
			c.svc.StudentJoin(c.ID, payload.Name)
		case "create_poll":
			var payload struct {
				Question  string   `json:"question"`
				Options   []string `json:"options"`
				TimeLimit int      `json:"timeLimit"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			c.svc.CreatePoll(c.ID, payload.Question, payload.Options, payload.TimeLimit)
		case "submit_answer":
			var payload struct {
				PollID string `json:"pollId"`
				Answer string `json:"answer"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			c.svc.SubmitAnswer(c.ID, payload.PollID, payload.Answer)
		case "end_poll":
			c.svc.EndPoll(c.ID)
		case "kick_student":
			var target string
			if err := json.Unmarshal(msg.Data, &target); err != nil {
				continue
			}
			c.svc.KickStudent(c.ID, target)
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues an envelope without blocking; full buffers drop the event.
func (c *Client) trySend(env Envelope) {
	select {
	case c.send <- env:
	default:
		// buffer full, skip
	}
}
