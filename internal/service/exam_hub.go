package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"academic_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	shardCount     = 32
	sendBuffer     = 64

	examStateChannel = "exam_state_channel"
)

const (
	FrameAnswer      = "ANSWER"
	FrameAnswerAck   = "ANSWER_ACK"
	FrameAnswerError = "ANSWER_ERROR"
	FrameExamState   = "EXAM_STATE"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is an inbound frame.
type WSMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is a frame pushed to clients.
type OutboundMessage struct {
	Type string      `json:"type"`
	ID   string      `json:"id,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

type answerFrame struct {
	ExamID         uint   `json:"examId"`
	QuestionID     uint   `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

type answerErrorFrame struct {
	Reason     string `json:"reason"`
	Message    string `json:"message"`
	ExamID     uint   `json:"examId,omitempty"`
	QuestionID uint   `json:"questionId,omitempty"`
}

// ExamStateEvent announces an availability transition.
type ExamStateEvent struct {
	ExamID    uint                    `json:"examId"`
	ClassID   uint                    `json:"classId"`
	State     model.AvailabilityState `json:"state"`
	StartTime time.Time               `json:"startTime"`
	EndTime   time.Time               `json:"endTime"`
}

// AnswerUpserter is the ledger entry point the hub feeds.
type AnswerUpserter interface {
	Upsert(ctx context.Context, in AnswerInput) (*AnswerReceipt, error)
}

type Client struct {
	Hub     *ExamHub
	Conn    *websocket.Conn
	Send    chan []byte
	Caller  model.Caller
	ClassID uint
	Limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func (c *Client) enqueue(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Log.Warn("Realtime send buffer full, dropping frame", zap.Uint("userId", c.Caller.ID))
	}
}

// closeSend closes Send once; the write pump then closes the connection.
func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.Caller.ID))
			}
			break
		}

		if !c.Limiter.Allow() {
			c.enqueue(errorFrame("", util.ErrRateLimited, answerFrame{}))
			continue
		}

		if reply := c.Hub.HandleMessage(c.Hub.ctx, c.Caller, message); reply != nil {
			c.enqueue(reply)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			monitoring.RealtimeMessages.WithLabelValues("frame", "out").Inc()
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*Client
	mu      sync.RWMutex
}

// ExamHub owns the realtime connections of this instance: answers come in,
// exam state transitions go out. With Redis configured, state broadcasts are
// fanned out to every instance through pub/sub.
type ExamHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once
	Redis      *redis.Client
	Answers    AnswerUpserter
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewExamHub(rdb *redis.Client, answers AnswerUpserter) *ExamHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ExamHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		Redis:      rdb,
		Answers:    answers,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[uint]*Client),
		}
	}
	return h
}

func (h *ExamHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

// PubSubMessage is the cross-instance envelope; ClassID 0 targets every client.
type PubSubMessage struct {
	ClassID uint            `json:"classId"`
	Payload json.RawMessage `json:"payload"`
}

func (h *ExamHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, examStateChannel)
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				var psMsg PubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.deliverLocal(psMsg.ClassID, psMsg.Payload)
			}
		}()
	}

	for {
		select {
		case client := <-h.register:
			h.attach(client)
		case client := <-h.unregister:
			h.detach(client)
		case <-h.quit:
			return
		}
	}
}

// attach registers the client, replacing an older connection of the same user.
func (h *ExamHub) attach(client *Client) {
	s := h.getShard(client.Caller.ID)
	s.mu.Lock()
	if old, ok := s.clients[client.Caller.ID]; ok && old != client {
		old.closeSend()
		monitoring.RealtimeConnections.Dec()
	}
	s.clients[client.Caller.ID] = client
	s.mu.Unlock()
	monitoring.RealtimeConnections.Inc()
}

func (h *ExamHub) detach(client *Client) {
	s := h.getShard(client.Caller.ID)
	s.mu.Lock()
	if cur, ok := s.clients[client.Caller.ID]; ok && cur == client {
		delete(s.clients, client.Caller.ID)
		client.closeSend()
		monitoring.RealtimeConnections.Dec()
	}
	s.mu.Unlock()
}

func (h *ExamHub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop closes every connection of this instance.
func (h *ExamHub) Stop() {
	h.stopOnce.Do(func() {
		logger.Log.Info("ExamHub stopping: closing realtime connections...")
		close(h.quit)
		h.cancel()

		closed := 0
		for i := 0; i < shardCount; i++ {
			s := h.shards[i]
			s.mu.Lock()
			for userID, client := range s.clients {
				client.closeSend()
				delete(s.clients, userID)
				closed++
			}
			s.mu.Unlock()
		}
		monitoring.RealtimeConnections.Set(0)
		logger.Log.Info("ExamHub stopped", zap.Int("closedConnections", closed))
	})
}

// HandleMessage processes one inbound frame and returns the reply frame, if any.
func (h *ExamHub) HandleMessage(ctx context.Context, caller model.Caller, raw []byte) []byte {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorFrame("", util.InvalidInput("malformed frame"), answerFrame{})
	}
	if msg.ID == "" {
		msg.ID = model.GenerateUUID()
	}
	monitoring.RealtimeMessages.WithLabelValues(msg.Type, "in").Inc()

	switch msg.Type {
	case FrameAnswer:
		return h.handleAnswer(ctx, caller, msg)
	default:
		return errorFrame(msg.ID, util.InvalidInput("unsupported frame type"), answerFrame{})
	}
}

func (h *ExamHub) handleAnswer(ctx context.Context, caller model.Caller, msg WSMessage) []byte {
	var in answerFrame
	if err := json.Unmarshal(msg.Data, &in); err != nil || in.ExamID == 0 || in.QuestionID == 0 {
		return errorFrame(msg.ID, util.InvalidInput("examId, questionId and selectedOption are required"), in)
	}
	if !caller.Can(model.PermTakeExam) {
		return errorFrame(msg.ID, util.ErrForbidden, in)
	}

	receipt, err := h.Answers.Upsert(ctx, AnswerInput{
		StudentID:      caller.ID,
		ExamID:         in.ExamID,
		QuestionID:     in.QuestionID,
		SelectedOption: in.SelectedOption,
		Channel:        util.ChannelRealtime,
	})
	if err != nil {
		if util.KindOf(err) == util.KindInternal {
			logger.Log.Error("Realtime answer failed",
				zap.Uint("userId", caller.ID),
				zap.Uint("examId", in.ExamID),
				zap.Uint("questionId", in.QuestionID),
				zap.Error(err))
		} else {
			logger.Log.Debug("Realtime answer rejected",
				zap.Uint("userId", caller.ID),
				zap.String("reason", util.ReasonOf(err)))
		}
		return errorFrame(msg.ID, err, in)
	}
	return encodeFrame(OutboundMessage{Type: FrameAnswerAck, ID: msg.ID, Data: receipt})
}

func errorFrame(id string, err error, in answerFrame) []byte {
	message := "internal error"
	if util.KindOf(err) != util.KindInternal {
		message = err.Error()
	}
	return encodeFrame(OutboundMessage{
		Type: FrameAnswerError,
		ID:   id,
		Data: answerErrorFrame{
			Reason:     util.ReasonOf(err),
			Message:    message,
			ExamID:     in.ExamID,
			QuestionID: in.QuestionID,
		},
	})
}

func encodeFrame(msg OutboundMessage) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Frame encode failed", zap.String("type", msg.Type), zap.Error(err))
		return nil
	}
	return b
}

// BroadcastExamState pushes a transition to the exam's class on every instance.
func (h *ExamHub) BroadcastExamState(ctx context.Context, evt ExamStateEvent) {
	payload := encodeFrame(OutboundMessage{Type: FrameExamState, Data: evt})
	if payload == nil {
		return
	}
	monitoring.RealtimeMessages.WithLabelValues(FrameExamState, "broadcast").Inc()

	if h.Redis != nil {
		envelope, _ := json.Marshal(PubSubMessage{ClassID: evt.ClassID, Payload: payload})
		err := h.Redis.Publish(ctx, examStateChannel, envelope).Err()
		if err == nil {
			return
		}
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
	}
	h.deliverLocal(evt.ClassID, payload)
}

// deliverLocal hands payload to local clients of the class and to staff.
func (h *ExamHub) deliverLocal(classID uint, payload []byte) {
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for _, client := range s.clients {
			if classID == 0 || client.ClassID == classID || client.Caller.IsStaff() {
				client.enqueue(payload)
			}
		}
		s.mu.RUnlock()
	}
}

func (h *ExamHub) ConnectionCount() int {
	n := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		n += len(s.clients)
		s.mu.RUnlock()
	}
	return n
}

// ServeWs upgrades the request and starts the client's pumps.
func ServeWs(hub *ExamHub, w http.ResponseWriter, r *http.Request, caller model.Caller, classID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", caller.ID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Caller:  caller,
		ClassID: classID,
		Limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
