package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/chat"
	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/session"
)

const maxSessionIDLen = 128

type ChatResult struct {
	Reply        chat.Reply
	Confirmation *ConfirmResult
}

// ChatService maps session ids onto conversations. Turns of one session run
// one at a time; different sessions proceed in parallel.
type ChatService struct {
	router       *chat.Router
	sessions     session.Store
	bookings     *BookingService
	historyLimit int
	locks        *keyedMutex
}

func NewChatService(router *chat.Router, sessions session.Store, bookings *BookingService, historyLimit int) *ChatService {
	return &ChatService{
		router:       router,
		sessions:     sessions,
		bookings:     bookings,
		historyLimit: historyLimit,
		locks:        newKeyedMutex(),
	}
}

func (s *ChatService) Handle(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	conv, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, reply := s.router.Handle(ctx, conv, message)
	if err := s.sessions.Save(ctx, sessionID, next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	res := &ChatResult{Reply: reply}
	if reply.Confirmed && reply.Booking != nil && s.bookings != nil {
		res.Confirmation = s.bookings.Confirm(ctx, reply.Booking)
	}
	logutil.GetLogger(ctx).Debug("chat turn handled",
		zap.String("session_id", sessionID),
		zap.String("intent", string(reply.Intent)),
		zap.Bool("duplicate", reply.Duplicate),
		zap.String("stage", string(reply.Stage)),
	)
	return res, nil
}

// Reset forgets the session so the next message starts fresh.
func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	if err := checkSessionID(sessionID); err != nil {
		return err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.sessions.Delete(ctx, sessionID)
}

func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	conv, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	if conv.History.Messages == nil {
		return []model.Message{}, nil
	}
	return conv.History.Messages, nil
}

func (s *ChatService) load(ctx context.Context, sessionID string) (chat.Conversation, error) {
	conv, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return chat.NewConversation(s.historyLimit), nil
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("load session: %w", err)
	}
	return conv, nil
}

func checkSessionID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > maxSessionIDLen {
		return appErr.ErrInvalid
	}
	return nil
}
