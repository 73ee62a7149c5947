package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fpang/gemini-studio/internal/assets"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Send preconditions. A rejected send leaves the transcript untouched.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrReplyPending = errors.New("a reply is already pending")
)

// MessageSender delivers one user turn and returns the reply text.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// Sender identifies the author of a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry.
type Message struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	SentAt time.Time `json:"sentAt"`
}

// Conversation is a chat transcript bound to a single chat handle.
// Only one send may be outstanding at a time.
type Conversation struct {
	mu       sync.Mutex
	sender   MessageSender
	messages []Message
	pending  bool
	lastErr  string
}

// NewConversation starts a transcript with the greeting.
func NewConversation(sender MessageSender) *Conversation {
	return &Conversation{
		sender:   sender,
		messages: []Message{newMessage(SenderBot, assets.ChatGreeting)},
	}
}

func newMessage(sender Sender, text string) Message {
	return Message{
		ID:     uuid.NewString(),
		Text:   text,
		Sender: sender,
		SentAt: time.Now().UTC(),
	}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Pending reports whether a reply is outstanding.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// LastError is the cause of the most recent failed send, cleared by the next send.
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Send appends text as a user message, waits for the reply and appends it as a
// bot message. A failed reply is appended as a bot message describing the
// error; the returned error is only ever ErrEmptyMessage or ErrReplyPending.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	c.mu.Lock()
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return Message{}, ErrEmptyMessage
	}
	if c.pending {
		c.mu.Unlock()
		return Message{}, ErrReplyPending
	}
	c.messages = append(c.messages, newMessage(SenderUser, text))
	c.pending = true
	c.lastErr = ""
	c.mu.Unlock()

	reply, err := c.sender.SendMessage(ctx, text)

	var bot Message
	if err != nil {
		log.Warn().Err(err).Msg("Chat message failed")
		bot = newMessage(SenderBot, assets.RenderChatError(err.Error()))
	} else {
		bot = newMessage(SenderBot, reply)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, bot)
	c.pending = false
	if err != nil {
		c.lastErr = err.Error()
	}
	return bot, nil
}
