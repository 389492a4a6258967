package desk

import "sync"

// BillingURL is where the quota notice points the operator.
const BillingURL = "https://ai.google.dev/gemini-api/docs/billing"

// Notice is the global API error shown until dismissed.
type Notice struct {
	Message    string `json:"message"`
	BillingURL string `json:"billing_url"`
}

// NoticeBoard holds at most one notice; a newer one replaces the older.
type NoticeBoard struct {
	mu      sync.RWMutex
	current *Notice
}

func (b *NoticeBoard) RaiseNotice(msg string) {
	b.mu.Lock()
	b.current = &Notice{Message: msg, BillingURL: BillingURL}
	b.mu.Unlock()
}

func (b *NoticeBoard) Current() (Notice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

func (b *NoticeBoard) Dismiss() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}
