package realtime

import (
	"fmt"
	"sync"
)

// Event is a record-change notification republished to subscribers.
type Event struct {
	Topic   string      `json:"topic"`
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

// Topic helpers. One topic per live sequence the core exposes.
func TopicUserNotifications(userID string) string { return fmt.Sprintf("user:%s:notifications", userID) }
func TopicUserRequests(userID string) string      { return fmt.Sprintf("user:%s:requests", userID) }
func TopicUserChannels(userID string) string      { return fmt.Sprintf("user:%s:channels", userID) }
func TopicChannelMessages(channelID string) string {
	return fmt.Sprintf("channel:%s:messages", channelID)
}

// subscriptionBuffer bounds how far a slow consumer can lag before old events
// are dropped. Publishers never block.
const subscriptionBuffer = 16

// Subscription is a live sequence of events for one topic. Consumers read
// from C and must call Close when done; Close is idempotent.
type Subscription struct {
	C chan Event

	hub   *Hub
	topic string
	once  sync.Once
}

// Close releases the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.C)
	})
}

// Hub fans events out to topic subscribers. It is the in-process half of the
// realtime sync layer; the socket bridge forwards events to connected clients.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		C:     make(chan Event, subscriptionBuffer),
		hub:   h,
		topic: topic,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.topic)
		}
	}
}

// Publish delivers the event to every current subscriber of the topic.
// When a subscriber's buffer is full the oldest event is dropped so the
// publisher never blocks on a slow consumer.
func (h *Hub) Publish(topic, kind string, payload interface{}) {
	ev := Event{Topic: topic, Kind: kind, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[topic] {
		select {
		case sub.C <- ev:
		default:
			select {
			case <-sub.C:
			default:
			}
			select {
			case sub.C <- ev:
			default:
			}
		}
	}
}

// SubscriberCount is used by tests and the health endpoint.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
