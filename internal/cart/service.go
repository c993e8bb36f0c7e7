package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// Store persists sessions by id. Implementations must hand out copies so a
// caller mutating a loaded session never affects the stored one.
type Store interface {
	Get(ctx context.Context, id string) (*Session, bool, error)
	Put(ctx context.Context, id string, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Locker serializes work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Publisher emits domain events.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Service binds cart operations to stored sessions.
type Service struct {
	Store   Store
	Catalog *catalog.Catalog
	Billing Billing
	Locker  Locker
	LockTTL time.Duration
	Events  Publisher
	Logger  zerolog.Logger
	Now     func() time.Time
}

// ItemResult describes a line touched by add or remove together with the
// resulting cart.
type ItemResult struct {
	Line    LineItem
	Session *Session
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// Start opens a session for name under id, replacing whatever was stored there.
func (s *Service) Start(ctx context.Context, id, name string) (*Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session id is required: %w", ErrInvalidInput)
	}
	var out *Session
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		sess, err := Start(name, s.now())
		if err != nil {
			return err
		}
		if err := s.Store.Put(ctx, id, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		out = sess
		return nil
	})
	if err != nil {
		s.reject("start", err)
		return nil, err
	}
	obs.RecordSessionStarted()
	s.emit(ctx, events.TopicSessionStarted, id, map[string]any{
		"customerName": out.CustomerName,
		"startedAt":    out.StartedAt,
	})
	s.Logger.Info().Str("session_id", id).Str("customer", out.CustomerName).Msg("session started")
	return out, nil
}

// Get returns the stored session or ErrNoSession.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNoSession
	}
	sess, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// AddItem appends qty units of the catalog item key to the session's cart.
func (s *Service) AddItem(ctx context.Context, id, key string, qty int) (ItemResult, error) {
	var line LineItem
	sess, err := s.mutate(ctx, "add_item", id, func(sess *Session) error {
		var err error
		line, err = sess.AddItem(s.Catalog, key, qty)
		return err
	})
	if err != nil {
		return ItemResult{Session: sess}, err
	}
	obs.RecordItemAdded(line.Key)
	s.emit(ctx, events.TopicItemAdded, id, line)
	s.Logger.Info().
		Str("session_id", id).
		Str("item", line.Key).
		Int("qty", line.Quantity).
		Str("running_total", sess.RunningTotal.StringFixed(2)).
		Msg("item added")
	return ItemResult{Line: line, Session: sess}, nil
}

// RemoveItem deletes the line at index. On ErrIndexOutOfRange the unchanged
// session is returned alongside the error.
func (s *Service) RemoveItem(ctx context.Context, id string, index int) (ItemResult, error) {
	var line LineItem
	sess, err := s.mutate(ctx, "remove_item", id, func(sess *Session) error {
		var err error
		line, err = sess.RemoveItem(index)
		return err
	})
	if err != nil {
		return ItemResult{Session: sess}, err
	}
	obs.RecordItemRemoved(line.Key)
	s.emit(ctx, events.TopicItemRemoved, id, map[string]any{
		"index": index,
		"line":  line,
	})
	s.Logger.Info().
		Str("session_id", id).
		Str("item", line.Key).
		Int("index", index).
		Str("running_total", sess.RunningTotal.StringFixed(2)).
		Msg("item removed")
	return ItemResult{Line: line, Session: sess}, nil
}

// Finalize bills the cart and closes the session.
func (s *Service) Finalize(ctx context.Context, id string) (Invoice, error) {
	var inv Invoice
	_, err := s.mutate(ctx, "finalize", id, func(sess *Session) error {
		var err error
		inv, err = sess.Finalize(s.Billing, s.now())
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	grand, _ := inv.GrandTotal.Float64()
	obs.RecordInvoice(grand)
	s.emit(ctx, events.TopicInvoiceGenerated, id, inv)
	s.Logger.Info().
		Str("session_id", id).
		Str("invoice", inv.Number).
		Int("lines", len(inv.Items)).
		Str("grand_total", inv.GrandTotal.StringFixed(2)).
		Msg("invoice generated")
	return inv, nil
}

// Invoice returns the invoice of a finalized session, or ErrNoInvoice while
// the session is still open.
func (s *Service) Invoice(ctx context.Context, id string) (Invoice, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if sess.Invoice == nil {
		return Invoice{}, ErrNoInvoice
	}
	return sess.Invoice.Clone(), nil
}

// Reset discards the session. Store failures are logged, never returned: from
// the caller's view the session is gone.
func (s *Service) Reset(ctx context.Context, id string) {
	if s.ready() != nil || strings.TrimSpace(id) == "" {
		return
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("session_id", id).Msg("reset session")
		return
	}
	obs.RecordSessionReset()
	s.emit(ctx, events.TopicSessionReset, id, map[string]any{"resetAt": s.now()})
	s.Logger.Info().Str("session_id", id).Msg("session reset")
}

// mutate loads a copy of the session, applies fn and saves the result only
// when fn succeeds. The returned session reflects the stored state.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(*Session) error) (*Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		s.reject(op, ErrSessionInactive)
		return nil, ErrSessionInactive
	}
	var out *Session
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		sess, ok, err := s.Store.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if !ok {
			return ErrSessionInactive
		}
		work := sess.Clone()
		if err := fn(work); err != nil {
			out = sess
			return err
		}
		if err := s.Store.Put(ctx, id, work); err != nil {
			out = sess
			return fmt.Errorf("save session: %w", err)
		}
		out = work
		return nil
	})
	if err != nil {
		s.reject(op, err)
	}
	return out, err
}

func (s *Service) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return s.Locker.WithLock(ctx, "session:"+id+":lock", ttl, fn)
}

func (s *Service) emit(ctx context.Context, topic, id string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, id, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Str("session_id", id).Msg("emit event")
	}
}

func (s *Service) reject(op string, err error) {
	kind := Kind(err)
	obs.RecordRejection(op, kind)
	if kind == KindInternal {
		s.Logger.Error().Err(err).Str("operation", op).Msg("cart operation failed")
	}
}
