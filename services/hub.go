package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"partyquiz/models"
	"partyquiz/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans change-feed events out to every websocket client of a session.
// One feed subscription is held per session code, opened with the first
// client and torn down with the last, so no subscription outlives the
// clients it serves.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan store.Event
	mutex      sync.RWMutex

	feed     store.Feed
	sessions *SessionService
	subs     map[string]*sessionSub
}

type sessionSub struct {
	sub  store.Subscription
	refs int
}

type Client struct {
	hub           *Hub
	id            string
	socket        *websocket.Conn
	send          chan []byte
	sessionCode   string
	participantID string
	name          string
	role          Role
	state         *ClientState
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(feed store.Feed, sessions *SessionService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan store.Event, 64),
		feed:       feed,
		sessions:   sessions,
		subs:       make(map[string]*sessionSub),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.retainSubscription(client.sessionCode)
			log.Printf("Client %s registered for session %s (%s %s) - total clients: %d",
				client.id, client.sessionCode, client.role, client.name, h.clientCount())
			h.SendSessionSync(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.releaseSubscription(client.sessionCode)
			log.Printf("Client %s unregistered from session %s - total clients: %d",
				client.id, client.sessionCode, h.clientCount())

		case evt := <-h.events:
			h.dispatch(evt)
		}
	}
}

// retainSubscription opens the feed subscription for a session when its
// first client arrives.
func (h *Hub) retainSubscription(code string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if entry, ok := h.subs[code]; ok {
		entry.refs++
		return
	}
	sub, err := h.feed.Subscribe(context.Background(), code)
	if err != nil {
		log.Printf("Failed to subscribe to feed for session %s: %v", code, err)
		return
	}
	h.subs[code] = &sessionSub{sub: sub, refs: 1}
	go func() {
		for evt := range sub.Events() {
			h.events <- evt
		}
	}()
}

// releaseSubscription closes the feed subscription when a session's last
// client leaves.
func (h *Hub) releaseSubscription(code string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	entry, ok := h.subs[code]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	delete(h.subs, code)
	if err := entry.sub.Close(); err != nil {
		log.Printf("Failed to close feed subscription for session %s: %v", code, err)
	}
}

// dispatch applies a feed event to every matching client's local state and
// forwards it. Clients of other sessions never see it.
func (h *Hub) dispatch(evt store.Event) {
	msgType := messageTypeFor(evt)
	data, err := json.Marshal(Message{Type: msgType, Payload: json.RawMessage(evt.New)})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msgType, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.sessionCode != evt.SessionCode {
			continue
		}
		client.apply(evt)
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func messageTypeFor(evt store.Event) string {
	switch evt.Table {
	case store.TableSessions:
		return "session_update"
	case store.TablePlayers:
		return "player_joined"
	case store.TableAnswers:
		return "answer_submitted"
	default:
		return "minigame_update"
	}
}

// apply reconciles the client's local state; the ClientState guards against
// events for any other session on its own.
func (c *Client) apply(evt store.Event) {
	switch evt.Table {
	case store.TableSessions:
		var session models.Session
		if err := json.Unmarshal(evt.New, &session); err == nil {
			c.state.ApplySession(session)
		}
	case store.TablePlayers:
		var p models.Participant
		if err := json.Unmarshal(evt.New, &p); err == nil {
			c.state.ApplyPlayerJoined(p)
		}
	case store.TableAnswers:
		var a models.Answer
		if err := json.Unmarshal(evt.New, &a); err == nil {
			c.state.ApplyAnswer(a)
		}
	}
}

// SendSessionSync pushes the full current snapshot to one client, for
// (re)connects and explicit state requests.
func (h *Hub) SendSessionSync(client *Client) {
	session, err := h.sessions.GetSession(context.Background(), client.sessionCode)
	if err != nil {
		log.Printf("Error getting session %s for sync to client %s: %v", client.sessionCode, client.id, err)
		return
	}
	client.state.ApplySession(*session)
	for _, p := range session.Participants {
		client.state.ApplyPlayerJoined(p)
	}

	data, err := json.Marshal(Message{
		Type: "session_sync",
		Payload: map[string]interface{}{
			"session": session,
			"screen":  client.state.Screen(),
		},
	})
	if err != nil {
		log.Printf("Error marshaling session sync message: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ConnectedParticipants lists the participant ids connected for a session.
func (h *Hub) ConnectedParticipants(sessionCode string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var ids []string
	for client := range h.clients {
		if client.sessionCode == sessionCode {
			ids = append(ids, client.participantID)
		}
	}
	return ids
}

func (h *Hub) RegisterClient(conn *websocket.Conn, sessionCode, participantID, name string, role Role) *Client {
	client := &Client{
		hub:           h,
		id:            uuid.NewString(),
		socket:        conn,
		send:          make(chan []byte, 256),
		sessionCode:   sessionCode,
		participantID: participantID,
		name:          name,
		role:          role,
		state:         NewClientState(sessionCode, role, h.sessions.Script()),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message from client %s: %v", c.id, err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.send <- data

	case "request_state":
		c.hub.SendSessionSync(c)

	case "leave_session":
		c.state.Reset()
		log.Printf("Client %s (%s) left session %s", c.id, c.name, c.sessionCode)

	default:
		log.Printf("Unknown message type %q from client %s in session %s", msg.Type, c.id, c.sessionCode)
	}
}
