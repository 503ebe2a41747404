// Package support wraps the ticket endpoints and watches a ticket for new
// replies.
package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/metrics"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/poller"
	"forex-portal-go/internal/store"
	"forex-portal-go/internal/validate"

	"go.uber.org/zap"
)

const DefaultPollInterval = 3 * time.Second

var ErrEmptyMessage = errors.New("message cannot be empty")

// Backend is the part of the REST client support needs.
type Backend interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	CreateTicket(ctx context.Context, ticket api.NewTicket) (*models.Ticket, error)
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ReplyTicket(ctx context.Context, id, message string) (*models.TicketMessage, error)
}

// CursorStore persists the last message shown per ticket.
type CursorStore interface {
	GetTicketCursor(ctx context.Context, ticketId string) (*models.TicketCursor, error)
	SaveTicketCursor(ctx context.Context, cursor models.TicketCursor) error
}

type Service struct {
	backend  Backend
	cursors  CursorStore
	interval time.Duration
}

func NewService(backend Backend, cursors CursorStore, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Service{backend: backend, cursors: cursors, interval: interval}
}

func (s *Service) List(ctx context.Context) ([]models.Ticket, error) {
	return s.backend.ListTickets(ctx)
}

func (s *Service) Open(ctx context.Context, subject, category, message string) (*models.Ticket, error) {
	ticket := api.NewTicket{
		Subject:  strings.TrimSpace(subject),
		Category: strings.TrimSpace(category),
		Message:  strings.TrimSpace(message),
	}
	if err := validate.Draft(ticket); err != nil {
		return nil, err
	}
	return s.backend.CreateTicket(ctx, ticket)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Ticket, error) {
	return s.backend.GetTicket(ctx, id)
}

func (s *Service) Reply(ctx context.Context, id, message string) (*models.TicketMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	return s.backend.ReplyTicket(ctx, id, message)
}

// Watch is a running ticket watch.
type Watch struct {
	ticketId string
	p        *poller.Poller[*models.Ticket]
}

// Stop ends the watch and waits for in-flight polls.
func (w *Watch) Stop() {
	w.p.Stop()
}

func (w *Watch) Done() <-chan struct{} {
	return w.p.Done()
}

// Refresh polls right away, e.g. after the user replied.
func (w *Watch) Refresh() {
	w.p.Poke()
}

// Watch polls ticket id until ctx is cancelled or Stop is called and calls
// onMessage once for every message not shown before, oldest first. The
// last shown message is persisted so a new watch resumes after it.
// onError may be nil.
func (s *Service) Watch(ctx context.Context, id string, onMessage func(models.TicketMessage), onError func(error)) (*Watch, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket id is required")
	}

	tracker := &messageTracker{ticketId: id, seen: make(map[string]struct{})}
	if s.cursors != nil {
		cursor, err := s.cursors.GetTicketCursor(ctx, id)
		switch {
		case err == nil:
			tracker.cursor = cursor
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, fmt.Errorf("unable to load ticket cursor: %w", err)
		}
	}

	p, err := poller.New(poller.Config[*models.Ticket]{
		Name:     "support-ticket-" + id,
		Interval: s.interval,
		Fetch: func(ctx context.Context, _ uint64) (*models.Ticket, error) {
			return s.backend.GetTicket(ctx, id)
		},
		OnResult: func(_ uint64, ticket *models.Ticket) {
			metrics.ObservePoll("ok")
			fresh := tracker.next(ticket.Messages)
			for _, m := range fresh {
				onMessage(m)
			}
			if len(fresh) > 0 {
				s.saveCursor(ctx, tracker.cursor)
			}
		},
		OnError: func(_ uint64, err error) {
			metrics.ObservePoll("error")
			if onError != nil {
				onError(err)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	if err := p.Start(ctx); err != nil {
		return nil, err
	}
	return &Watch{ticketId: id, p: p}, nil
}

func (s *Service) saveCursor(ctx context.Context, cursor *models.TicketCursor) {
	if s.cursors == nil || cursor == nil {
		return
	}
	if err := s.cursors.SaveTicketCursor(ctx, *cursor); err != nil {
		zap.L().Warn("Failed to save ticket cursor",
			zap.String("ticket_id", cursor.TicketId),
			zap.Error(err))
	}
}

// messageTracker decides which messages of a ticket snapshot are new.
type messageTracker struct {
	mu       sync.Mutex
	ticketId string
	cursor   *models.TicketCursor
	seen     map[string]struct{}
}

func (t *messageTracker) next(messages []models.TicketMessage) []models.TicketMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidates := messages
	if t.cursor != nil {
		idx := -1
		for i, m := range messages {
			if m.Id == t.cursor.LastMessageId {
				idx = i
				break
			}
		}
		if idx >= 0 {
			candidates = messages[idx+1:]
		} else {
			candidates = nil
			for _, m := range messages {
				if m.CreatedAt.After(t.cursor.LastSeenAt) {
					candidates = append(candidates, m)
				}
			}
		}
	}

	var fresh []models.TicketMessage
	for _, m := range candidates {
		if _, ok := t.seen[m.Id]; ok {
			continue
		}
		t.seen[m.Id] = struct{}{}
		fresh = append(fresh, m)
	}

	if len(fresh) > 0 {
		last := fresh[len(fresh)-1]
		seenAt := last.CreatedAt
		if seenAt.IsZero() {
			seenAt = time.Now().UTC()
		}
		t.cursor = &models.TicketCursor{
			TicketId:      t.ticketId,
			LastMessageId: last.Id,
			LastSeenAt:    seenAt,
		}
	}
	return fresh
}
