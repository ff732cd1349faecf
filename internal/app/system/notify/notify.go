// internal/app/system/notify/notify.go
// Package notify carries user-facing notices ("Program saved") from the
// state layer to whatever surface renders them.
package notify

import "sync"

type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(level Level, message string)
}

// Collector buffers notices for one request so the handler can return them
// alongside its response.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *Collector) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Level: level, Message: message})
}

// Notices returns the collected notices in order; never nil.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Level, string) {}
