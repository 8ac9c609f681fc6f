package chat

import (
	"github.com/xxxsen/concierge/internal/model"
)

const DefaultHistoryLimit = 25

// History is a bounded list of messages, oldest first. Appending past the
// limit drops the oldest entries.
type History struct {
	Limit    int             `json:"limit"`
	Messages []model.Message `json:"messages"`
}

func NewHistory(limit int) History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return History{Limit: limit}
}

// Append returns a new history with m added. h is left untouched.
func (h History) Append(m model.Message) History {
	limit := h.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	msgs := make([]model.Message, 0, min(len(h.Messages)+1, limit))
	start := max(0, len(h.Messages)+1-limit)
	if start < len(h.Messages) {
		msgs = append(msgs, h.Messages[start:]...)
	}
	msgs = append(msgs, m)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return History{Limit: limit, Messages: msgs}
}

func (h History) Len() int {
	return len(h.Messages)
}

// Last returns up to n most recent messages.
func (h History) Last(n int) []model.Message {
	if n <= 0 || len(h.Messages) <= n {
		return h.Messages
	}
	return h.Messages[len(h.Messages)-n:]
}

// PreviousAnswer looks for an earlier user message that equals question
// after normalization and returns the first assistant reply that follows it.
// The last user message is ignored so the current question never matches
// itself.
func (h History) PreviousAnswer(question string) (string, bool) {
	want := Normalize(question)
	if want == "" {
		return "", false
	}
	msgs := h.Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleUser {
		msgs = msgs[:n-1]
	}
	for i, m := range msgs {
		if m.Role != model.RoleUser || Normalize(m.Content) != want {
			continue
		}
		for _, next := range msgs[i+1:] {
			if next.Role == model.RoleAssistant {
				return next.Content, true
			}
		}
	}
	return "", false
}
