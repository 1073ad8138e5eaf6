package server

import (
	"encoding/json"
	"sync"
)

// adminTopic carries activity events to every open admin console.
const adminTopic = "admin"

const (
	eventParticipantJoined = "participant_joined"
	eventSessionStarted    = "session_started"
	eventSessionCompleted  = "session_completed"
)

// ActivityEvent is the payload streamed to admin subscribers.
type ActivityEvent struct {
	Type            string `json:"type"`
	SessionID       string `json:"sessionId,omitempty"`
	ParticipantName string `json:"participantName,omitempty"`
	CodeID          string `json:"codeId,omitempty"`
	Score           *int   `json:"score,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of topic.
func (b *Broker) Publish(topic string, event ActivityEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
