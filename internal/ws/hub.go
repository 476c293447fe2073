package ws

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/metrics"
	"SourceHub/internal/lib/sl"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const (
	eventJoin   = "join"
	eventJoined = "joined"
	eventError  = "error"

	queueSize = 256
)

// Event is the frame pushed to live clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Relay forwards frames to hubs running in other instances.
type Relay interface {
	Publish(room string, frame []byte) error
}

// outbound is a frame addressed to a room; an empty room reaches every client.
type outbound struct {
	room  string
	frame []byte
	kind  string
}

type joinRequest struct {
	client *Client
	room   string
}

// Hub keeps room membership and fans frames out to clients. All membership
// changes and deliveries run on the Run loop, so frames for one room leave
// in publish order.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	done       chan struct{}
	relay      Relay
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan outbound, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		done:       make(chan struct{}),
		log:        log.With(sl.Module("ws-hub")),
	}
}

func (h *Hub) SetRelay(relay Relay) {
	h.relay = relay
}

// Run is the dispatch loop; it returns when ctx is done and closes all clients.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WsConnectionsActive.Inc()
			if client.admin != nil {
				h.addToRoom(client, entity.AdminRoom(client.admin.ID))
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case req := <-h.join:
			if _, ok := h.clients[req.client]; ok {
				h.addToRoom(req.client, req.room)
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) addToRoom(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	client.rooms[room] = true
	h.send(client, mustFrame(eventJoined, map[string]string{"room": room}))
}

func (h *Hub) deliver(msg outbound) {
	if msg.room == "" {
		for client := range h.clients {
			h.send(client, msg.frame)
		}
		return
	}
	for client := range h.rooms[msg.room] {
		h.send(client, msg.frame)
	}
}

// send never blocks the loop; a client that cannot keep up is disconnected.
func (h *Hub) send(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		h.log.Debug("slow client dropped", slog.Int("rooms", len(client.rooms)))
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.clients, client)
	close(client.send)
	metrics.WsConnectionsActive.Dec()
}

func mustFrame(eventType string, data interface{}) []byte {
	frame, err := json.Marshal(&Event{Type: eventType, Data: data})
	if err != nil {
		frame, _ = json.Marshal(&Event{Type: eventError, Data: err.Error()})
	}
	return frame
}

// attach and detach return false once the loop has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// enqueue hands a frame to the loop without waiting; it reports false on overflow.
func (h *Hub) enqueue(msg outbound) bool {
	select {
	case h.broadcast <- msg:
		metrics.RecordEvent(msg.kind, "queued")
		return true
	default:
		metrics.RecordEvent(msg.kind, "dropped")
		h.log.Warn("event queue full, frame dropped",
			slog.String("type", msg.kind),
			slog.String("room", msg.room),
		)
		return false
	}
}

func (h *Hub) publish(room, eventType string, data interface{}) {
	frame, err := json.Marshal(&Event{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("encode event", slog.String("type", eventType), sl.Err(err))
		return
	}
	h.enqueue(outbound{room: room, frame: frame, kind: eventType})

	if h.relay != nil {
		if err = h.relay.Publish(room, frame); err != nil {
			h.log.Warn("relay publish", slog.String("type", eventType), sl.Err(err))
			return
		}
		metrics.RecordEvent(eventType, "relayed")
	}
}

// PublishMessage sends a message-received event to everyone in the event's room.
func (h *Hub) PublishMessage(event entity.MessageReceived) {
	h.publish(event.Room, entity.EventMessageReceived, event)
}

// BroadcastLike sends a content-liked event to every connection.
func (h *Hub) BroadcastLike(event entity.ContentLiked) {
	h.publish("", entity.EventContentLiked, event)
}

// DeliverRemote queues a frame that another instance already published.
func (h *Hub) DeliverRemote(room string, frame []byte) {
	var event Event
	kind := "remote"
	if json.Unmarshal(frame, &event) == nil && event.Type != "" {
		kind = event.Type
	}
	h.enqueue(outbound{room: room, frame: frame, kind: kind})
}

// clientEvent is an incoming frame from a live client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses a client frame. Only join is understood; admin
// rooms are reserved for the admin they belong to. Messages and likes arrive
// through the HTTP API, so other frame types are dropped.
func (h *Hub) HandleClientMessage(client *Client, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Debug("failed to parse client ws message", sl.Err(err))
		return
	}

	switch event.Type {
	case eventJoin:
		var data struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			h.log.Debug("failed to parse join data", sl.Err(err))
			return
		}
		room := strings.TrimSpace(data.Room)
		if room == "" {
			return
		}
		if strings.HasPrefix(room, entity.AdminRoom("")) {
			if client.admin == nil || entity.AdminRoom(client.admin.ID) != room {
				h.log.Warn("admin room join refused", slog.String("room", room))
				return
			}
		}
		select {
		case h.join <- joinRequest{client: client, room: room}:
		case <-h.done:
		}
	}
}
