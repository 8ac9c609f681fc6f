package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/chat"
	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/rag"
	"github.com/xxxsen/concierge/internal/session"
)

type echoAnswerer struct{}

func (echoAnswerer) Answer(ctx context.Context, query string, history []model.Message, k int) (*rag.Answer, error) {
	return &rag.Answer{Text: "echo: " + query}, nil
}

func newChatService(bookings *BookingService) (*ChatService, session.Store) {
	store := session.NewMemoryStore(time.Hour)
	router := chat.NewRouter(echoAnswerer{}, chat.RouterConfig{})
	return NewChatService(router, store, bookings, 25), store
}

func TestChatServiceBookingConfirmation(t *testing.T) {
	customers, bookings, mailer := &memCustomers{}, &memBookings{}, &fakeMailer{}
	svc, _ := newChatService(NewBookingService(customers, bookings, mailer))
	ctx := context.Background()

	for _, msg := range []string{"I want to book a demo", "Jane", "jane@example.com", "5551234567", "demo", "2025-07-01", "10:00"} {
		res, err := svc.Handle(ctx, "s1", msg)
		require.NoError(t, err)
		require.Nil(t, res.Confirmation)
	}
	res, err := svc.Handle(ctx, "s1", "yes")
	require.NoError(t, err)
	require.True(t, res.Reply.Confirmed)
	require.NotNil(t, res.Confirmation)
	require.True(t, res.Confirmation.Persisted)
	require.Len(t, bookings.items, 1)
	require.Len(t, mailer.sent, 1)

	// replaying the completed dialogue does not book twice
	res, err = svc.Handle(ctx, "s1", "yes")
	require.NoError(t, err)
	require.Nil(t, res.Confirmation)
	require.Len(t, bookings.items, 1)
}

func TestChatServiceSessionsAreSeparate(t *testing.T) {
	svc, _ := newChatService(nil)
	ctx := context.Background()
	_, err := svc.Handle(ctx, "a", "book an appointment")
	require.NoError(t, err)
	res, err := svc.Handle(ctx, "b", "Jane")
	require.NoError(t, err)
	require.Equal(t, "echo: Jane", res.Reply.Text)

	hist, err := svc.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	require.NoError(t, svc.Reset(ctx, "a"))
	hist, err = svc.History(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestChatServiceRejectsEmptySession(t *testing.T) {
	svc, _ := newChatService(nil)
	_, err := svc.Handle(context.Background(), " ", "hi")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatServiceSerialisesTurns(t *testing.T) {
	svc, _ := newChatService(nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Handle(ctx, "shared", fmt.Sprintf("question %d", i))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()
	hist, err := svc.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, hist, 20)
	require.Zero(t, svc.locks.size())
}
