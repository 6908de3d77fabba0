package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// Notices collects short user-facing messages. Successes live 5s, warnings
// and errors 10s by default; expired entries are pruned lazily on read.
type Notices struct {
	mu         sync.Mutex
	items      []models.Notice
	successTTL time.Duration
	errorTTL   time.Duration
	now        func() time.Time
}

// NewNotices builds a notice board with the given display windows.
func NewNotices(successTTL, errorTTL time.Duration) *Notices {
	if successTTL <= 0 {
		successTTL = 5 * time.Second
	}
	if errorTTL <= 0 {
		errorTTL = 10 * time.Second
	}
	return &Notices{successTTL: successTTL, errorTTL: errorTTL, now: time.Now}
}

// Success posts a success notice.
func (n *Notices) Success(message string) {
	n.post(models.NoticeSuccess, message, n.successTTL)
}

// Warning posts a warning notice, shown as long as an error.
func (n *Notices) Warning(message string) {
	n.post(models.NoticeWarning, message, n.errorTTL)
}

// Error posts an error notice.
func (n *Notices) Error(message string) {
	n.post(models.NoticeError, message, n.errorTTL)
}

// Active returns the not-yet-expired notices, oldest first.
func (n *Notices) Active() []models.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune()
	out := make([]models.Notice, len(n.items))
	copy(out, n.items)
	return out
}

// Dismiss removes a notice before its window elapses.
func (n *Notices) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.items[:0]
	for _, item := range n.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	n.items = kept
}

func (n *Notices) post(level models.NoticeLevel, message string, ttl time.Duration) {
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune()
	n.items = append(n.items, models.Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
}

func (n *Notices) prune() {
	now := n.now()
	kept := n.items[:0]
	for _, item := range n.items {
		if item.ExpiresAt.After(now) {
			kept = append(kept, item)
		}
	}
	n.items = kept
}
