package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/booking"
	"github.com/xxxsen/concierge/internal/model"
	"github.com/xxxsen/concierge/internal/rag"
)

const (
	msgEmptyInput   = "Please type a message so I can assist you."
	msgDuplicate    = "You asked a similar question earlier. Here’s the answer I shared before:\n\n"
	msgNotSure      = "I’m not fully sure based on the information I have. If you upload a PDF or provide more details, I can try again."
	msgErrorDetails = "\n\n(Details: %s)"
)

type Answerer interface {
	Answer(ctx context.Context, query string, history []model.Message, k int) (*rag.Answer, error)
}

// Conversation is everything the router remembers about one chat.
type Conversation struct {
	History History        `json:"history"`
	Booking *booking.State `json:"booking,omitempty"`
}

func NewConversation(historyLimit int) Conversation {
	return Conversation{History: NewHistory(historyLimit)}
}

// Reply is the outcome of one turn.
type Reply struct {
	Text      string                `json:"text"`
	Intent    Intent                `json:"intent"`
	Duplicate bool                  `json:"duplicate"`
	Stage     booking.Stage         `json:"stage,omitempty"`
	Booking   *booking.Booking      `json:"booking,omitempty"`
	// Confirmed is true only on the turn the user confirmed the booking.
	Confirmed bool                  `json:"confirmed"`
	Contexts  []rag.RetrievalResult `json:"contexts,omitempty"`
	Model     string                `json:"model,omitempty"`
	Err       error                 `json:"-"`
}

type RouterConfig struct {
	HistoryLimit   int
	PromptMessages int
	TopK           int
}

type Router struct {
	answerer Answerer
	cfg      RouterConfig
}

func NewRouter(answerer Answerer, cfg RouterConfig) *Router {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.PromptMessages <= 0 {
		cfg.PromptMessages = rag.DefaultPromptMessages
	}
	return &Router{answerer: answerer, cfg: cfg}
}

// Handle processes one user message and returns the updated conversation.
// conv itself is not modified.
func (r *Router) Handle(ctx context.Context, conv Conversation, input string) (Conversation, Reply) {
	if conv.History.Limit <= 0 {
		conv.History.Limit = r.cfg.HistoryLimit
	}
	text := strings.TrimSpace(input)
	if text == "" {
		conv.History = conv.History.Append(model.Message{Role: model.RoleAssistant, Content: msgEmptyInput})
		return conv, Reply{Text: msgEmptyInput, Intent: IntentGeneral}
	}
	conv.History = conv.History.Append(model.Message{Role: model.RoleUser, Content: text})

	var reply Reply
	if prev, ok := conv.History.PreviousAnswer(text); ok {
		reply = Reply{Text: msgDuplicate + prev, Intent: DetectIntent(text), Duplicate: true}
		if conv.Booking != nil {
			reply.Stage = conv.Booking.Stage
		}
	} else if conv.Booking != nil && conv.Booking.Stage.Open() {
		conv, reply = r.continueBooking(conv, text, *conv.Booking)
	} else if DetectIntent(text) == IntentBooking {
		conv, reply = r.continueBooking(conv, text, booking.NewState())
	} else {
		reply = r.answer(ctx, conv, text)
	}

	conv.History = conv.History.Append(model.Message{Role: model.RoleAssistant, Content: reply.Text})
	return conv, reply
}

func (r *Router) continueBooking(conv Conversation, text string, st booking.State) (Conversation, Reply) {
	before := st.Stage
	next, res := booking.Advance(st, text)
	conv.Booking = &next
	return conv, Reply{
		Text:      res.Text,
		Intent:    IntentBooking,
		Stage:     next.Stage,
		Booking:   res.Booking,
		Confirmed: before == booking.StageConfirming && next.Stage == booking.StageCompleted,
	}
}

func (r *Router) answer(ctx context.Context, conv Conversation, text string) Reply {
	reply := Reply{Intent: IntentGeneral}
	if conv.Booking != nil {
		reply.Stage = conv.Booking.Stage
	}
	if r.answerer == nil {
		reply.Text = msgNotSure
		return reply
	}
	ans, err := r.answerer.Answer(ctx, text, conv.History.Last(r.cfg.PromptMessages), r.cfg.TopK)
	if err != nil {
		logutil.GetLogger(ctx).Warn("answer query failed", zap.Error(err))
		reply.Err = err
		reply.Text = msgNotSure + fmt.Sprintf(msgErrorDetails, err.Error())
		return reply
	}
	if strings.TrimSpace(ans.Text) == "" {
		reply.Text = msgNotSure
		reply.Contexts = ans.Contexts
		return reply
	}
	reply.Text = ans.Text
	reply.Contexts = ans.Contexts
	reply.Model = ans.Model
	return reply
}
