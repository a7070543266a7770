// Package inputhook shares the process-wide gohook event stream between the
// hotkey listener and the hook-based selection overlay.
package inputhook

import (
	"log"
	"sync"

	hook "github.com/robotn/gohook"
)

// Hub fans one gohook stream out to subscribers. The stream starts with the
// first subscriber and keeps running until Stop.
type Hub struct {
	start func() chan hook.Event
	end   func()

	mu      sync.Mutex
	subs    map[int]func(hook.Event)
	nextID  int
	running bool
	done    chan struct{}
}

var (
	defaultHub  *Hub
	defaultOnce sync.Once
)

// Default returns the hub backed by the real global hook.
func Default() *Hub {
	defaultOnce.Do(func() {
		defaultHub = New(hook.Start, hook.End)
	})
	return defaultHub
}

// New builds a hub over a custom event source.
func New(start func() chan hook.Event, end func()) *Hub {
	return &Hub{start: start, end: end, subs: make(map[int]func(hook.Event))}
}

// Subscribe registers fn for every event. fn runs on the dispatch goroutine
// and must not block.
func (h *Hub) Subscribe(fn func(hook.Event)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	needStart := !h.running
	if needStart {
		h.running = true
		h.done = make(chan struct{})
	}
	h.mu.Unlock()

	if needStart {
		h.run()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) run() {
	events := h.start()
	if events == nil {
		log.Printf("ERROR: gohook start returned nil channel")
		h.mu.Lock()
		h.running = false
		close(h.done)
		h.mu.Unlock()
		return
	}
	done := h.done
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in input hook dispatch: %v", r)
			}
		}()
		defer close(done)
		for ev := range events {
			for _, fn := range h.snapshot() {
				fn(ev)
			}
		}
		log.Printf("Input hook event channel closed")
	}()
}

func (h *Hub) snapshot() []func(hook.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(hook.Event), 0, len(h.subs))
	for _, fn := range h.subs {
		out = append(out, fn)
	}
	return out
}

// Stop ends the hook and waits for dispatch to drain.
func (h *Hub) Stop() {
	h.mu.Lock()
	running, done := h.running, h.done
	h.running = false
	h.mu.Unlock()
	if !running {
		return
	}
	h.end()
	<-done
}
