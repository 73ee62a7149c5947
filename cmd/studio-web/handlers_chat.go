package main

import (
	"net/http"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/session"
	"github.com/rs/zerolog/log"
)

type chatResponse struct {
	ID       string         `json:"id"`
	Messages []chat.Message `json:"messages"`
	Pending  bool           `json:"pending"`
	Reply    *chat.Message  `json:"reply,omitempty"`
}

func newChatResponse(c *session.Chat) chatResponse {
	return chatResponse{ID: c.ID, Messages: c.Messages(), Pending: c.Pending()}
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// POST /api/chats
func (s *server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	conv, err := s.chats.StartChat(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to start chat")
		httpError(w, http.StatusBadGateway, "failed to start chat session")
		return
	}
	c := s.reg.AddChat(conv)
	respondJSON(w, http.StatusCreated, newChatResponse(c))
}

// GET /api/chats/{id}
func (s *server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chat(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newChatResponse(c))
}

// POST /api/chats/{id}/messages
//
// Blocks until the reply arrives. Failed replies are part of the transcript,
// so the response is 200 whenever the message was accepted.
func (s *server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chat(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid message: "+err.Error())
		return
	}

	reply, err := c.Send(r.Context(), req.Text)
	if err != nil {
		respondErr(w, err)
		return
	}
	resp := newChatResponse(c)
	resp.Reply = &reply
	respondJSON(w, http.StatusOK, resp)
}
