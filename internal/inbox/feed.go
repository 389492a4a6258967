package inbox

import (
	"slices"
	"sync"

	"ReplyDesk/internal/model"
)

// Feed holds received messages newest first.
type Feed struct {
	mu       sync.RWMutex
	messages []model.Message
}

func NewFeed() *Feed {
	return &Feed{}
}

// Add puts msg at the head of the feed.
func (f *Feed) Add(msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = slices.Insert(f.messages, 0, msg)
}

// List returns a snapshot, newest first.
func (f *Feed) List() []model.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.messages)
}

// Get looks a message up by id.
func (f *Feed) Get(id string) (model.Message, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, m := range f.messages {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}
