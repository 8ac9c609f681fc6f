package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/concierge/internal/booking"
	"github.com/xxxsen/concierge/internal/middleware"
	"github.com/xxxsen/concierge/internal/pkg/errcode"
	"github.com/xxxsen/concierge/internal/pkg/response"
	"github.com/xxxsen/concierge/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type contextView struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float32 `json:"score"`
	Text   string  `json:"text"`
}

type confirmationView struct {
	BookingID    string `json:"booking_id,omitempty"`
	Persisted    bool   `json:"persisted"`
	PersistError string `json:"persist_error,omitempty"`
	EmailSent    bool   `json:"email_sent"`
	EmailError   string `json:"email_error,omitempty"`
}

type chatResponse struct {
	SessionID    string            `json:"session_id"`
	Reply        string            `json:"reply"`
	Intent       string            `json:"intent"`
	Duplicate    bool              `json:"duplicate"`
	Stage        string            `json:"stage,omitempty"`
	Booking      *booking.Booking  `json:"booking,omitempty"`
	Confirmed    bool              `json:"confirmed"`
	Confirmation *confirmationView `json:"confirmation,omitempty"`
	Contexts     []contextView     `json:"contexts"`
	Model        string            `json:"model,omitempty"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(c.GetHeader(middleware.SessionIDHeader))
	}
	if sessionID == "" {
		response.Fail(c, errcode.ErrInvalid, "session_id required")
		return
	}
	res, err := h.chats.Handle(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	reply := res.Reply
	out := chatResponse{
		SessionID: sessionID,
		Reply:     reply.Text,
		Intent:    string(reply.Intent),
		Duplicate: reply.Duplicate,
		Stage:     string(reply.Stage),
		Booking:   reply.Booking,
		Confirmed: reply.Confirmed,
		Contexts:  make([]contextView, 0, len(reply.Contexts)),
		Model:     reply.Model,
	}
	for _, rc := range reply.Contexts {
		out.Contexts = append(out.Contexts, contextView{Source: rc.Chunk.Source, Page: rc.Chunk.Page, Score: rc.Score, Text: rc.Chunk.Text})
	}
	if cr := res.Confirmation; cr != nil {
		view := &confirmationView{BookingID: cr.BookingID, Persisted: cr.Persisted, EmailSent: cr.EmailSent}
		if cr.PersistErr != nil {
			view.PersistError = cr.PersistErr.Error()
		}
		if cr.EmailErr != nil {
			view.EmailError = cr.EmailErr.Error()
		}
		out.Confirmation = view
	}
	response.Success(c, out)
}

func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chats.History(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": msgs})
}

func (h *ChatHandler) Reset(c *gin.Context) {
	if err := h.chats.Reset(c.Request.Context(), c.Param("session_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
