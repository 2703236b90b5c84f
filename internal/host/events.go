package host

// EventType names a change to the live run.
type EventType string

const (
	// EventSnapshot carries the run after a change.
	EventSnapshot EventType = "snapshot"
	// EventDiscarded reports that the live run was removed.
	EventDiscarded EventType = "discarded"
)

// Event is delivered to subscribers after every change to the live run.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

const subscriberBuffer = 16

// Subscribe registers for run events. The returned function unsubscribes and
// closes the channel; Stop closes every channel as well. A subscriber that
// falls subscriberBuffer events behind misses events until it catches up.
func (h *Host) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.subsMu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan Event]struct{})
	}
	h.subs[ch] = struct{}{}
	h.subsMu.Unlock()

	return ch, func() { h.unsubscribe(ch) }
}

func (h *Host) unsubscribe(ch chan Event) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// publish never blocks; it is called with h.mu held so events keep transition order.
func (h *Host) publish(e Event) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.log.Debug("dropped event for slow subscriber", "type", string(e.Type))
		}
	}
}

func (h *Host) closeSubscribers() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
