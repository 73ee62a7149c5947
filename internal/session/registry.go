// Package session keeps the live workspaces and chat conversations of a
// running server. Entries are held in memory only and expire after a period
// without access.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Lookup failures.
var (
	ErrInvalidID = errors.New("invalid id: must be a UUID")
	ErrNotFound  = errors.New("not found")
)

// uuidRegex matches UUID v4 format: 8-4-4-4-12 lowercase hex with dashes.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateID rejects anything that is not a lowercase UUID.
func ValidateID(id string) error {
	if !uuidRegex.MatchString(id) {
		return fmt.Errorf("%w (e.g., a1b2c3d4-e5f6-7890-abcd-ef1234567890)", ErrInvalidID)
	}
	return nil
}

// Workspace is a mounted workspace. Its context outlives individual HTTP
// requests and is cancelled when the workspace is unmounted or expires, which
// abandons any transformation still in flight.
type Workspace struct {
	ID string
	*workspace.Controller

	ctx    context.Context
	cancel context.CancelFunc
}

// Context bounds background work started for this workspace.
func (w *Workspace) Context() context.Context {
	return w.ctx
}

// Chat is a live chat conversation.
type Chat struct {
	ID string
	*chat.Conversation
}

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Registry maps ids to workspaces and chats.
type Registry struct {
	mu         sync.Mutex
	base       context.Context
	ttl        time.Duration
	now        func() time.Time
	workspaces map[string]*entry[*Workspace]
	chats      map[string]*entry[*Chat]
}

// NewRegistry creates an empty registry. Workspace contexts derive from base;
// entries idle for longer than ttl are removed by Expire.
func NewRegistry(base context.Context, ttl time.Duration) *Registry {
	return &Registry{
		base:       base,
		ttl:        ttl,
		now:        time.Now,
		workspaces: make(map[string]*entry[*Workspace]),
		chats:      make(map[string]*entry[*Chat]),
	}
}

// CreateWorkspace mounts an empty workspace backed by svc.
func (r *Registry) CreateWorkspace(svc workspace.Transformer) *Workspace {
	ctx, cancel := context.WithCancel(r.base)
	ws := &Workspace{
		ID:         uuid.NewString(),
		Controller: workspace.NewController(svc),
		ctx:        ctx,
		cancel:     cancel,
	}

	r.mu.Lock()
	r.workspaces[ws.ID] = &entry[*Workspace]{value: ws, lastSeen: r.now()}
	n := len(r.workspaces)
	r.mu.Unlock()

	log.Info().Str("workspace", ws.ID).Int("active", n).Msg("Workspace mounted")
	return ws
}

// Workspace returns the workspace with id and marks it as used.
func (r *Registry) Workspace(id string) (*Workspace, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.workspaces[id]
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	e.lastSeen = r.now()
	return e.value, nil
}

// DeleteWorkspace unmounts the workspace with id.
func (r *Registry) DeleteWorkspace(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	r.mu.Lock()
	e, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	e.value.cancel()
	log.Info().Str("workspace", id).Msg("Workspace unmounted")
	return nil
}

// AddChat registers conv and returns it with its new id.
func (r *Registry) AddChat(conv *chat.Conversation) *Chat {
	c := &Chat{ID: uuid.NewString(), Conversation: conv}

	r.mu.Lock()
	r.chats[c.ID] = &entry[*Chat]{value: c, lastSeen: r.now()}
	n := len(r.chats)
	r.mu.Unlock()

	log.Info().Str("chat", c.ID).Int("active", n).Msg("Chat session started")
	return c
}

// Chat returns the chat with id and marks it as used.
func (r *Registry) Chat(id string) (*Chat, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, ErrNotFound)
	}
	e.lastSeen = r.now()
	return e.value, nil
}

// Len returns the number of live workspaces and chats.
func (r *Registry) Len() (workspaces, chats int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces), len(r.chats)
}

// Expire removes every entry idle for longer than the TTL and returns how many
// were removed. Workspaces with a transformation in flight are kept.
func (r *Registry) Expire() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Workspace
	for id, e := range r.workspaces {
		if e.lastSeen.Before(cutoff) && !e.value.State().Processing {
			expired = append(expired, e.value)
			delete(r.workspaces, id)
		}
	}
	chats := 0
	for id, e := range r.chats {
		if e.lastSeen.Before(cutoff) && !e.value.Pending() {
			delete(r.chats, id)
			chats++
		}
	}
	r.mu.Unlock()

	for _, ws := range expired {
		ws.cancel()
	}
	if n := len(expired) + chats; n > 0 {
		log.Info().
			Int("workspaces", len(expired)).
			Int("chats", chats).
			Dur("ttl", r.ttl).
			Msg("Expired idle sessions")
	}
	return len(expired) + chats
}

// Close unmounts every workspace and drops every chat.
func (r *Registry) Close() {
	r.mu.Lock()
	workspaces := r.workspaces
	r.workspaces = make(map[string]*entry[*Workspace])
	r.chats = make(map[string]*entry[*Chat])
	r.mu.Unlock()

	for _, e := range workspaces {
		e.value.cancel()
	}
}
