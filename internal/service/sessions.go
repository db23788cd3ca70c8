package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/metrics"
)

// SessionService owns selection sessions. Every mutation is followed by an
// evaluation, and callers receive the fresh quote with the new state.
type SessionService interface {
	Open(ctx context.Context, bundleID string) (*model.SessionView, error)
	Get(ctx context.Context, id string) (*model.SessionView, error)
	Apply(ctx context.Context, id string, actions ...model.Action) (*model.SessionView, error)
	Submit(ctx context.Context, id string) (*model.SubmitResult, error)
	Close(ctx context.Context, id string) error
}

// SessionServiceImpl implements SessionService.
type SessionServiceImpl struct {
	store     SessionStore
	bundles   BundleService
	engine    PricingEngine
	submitter CartSubmitter
}

// NewSessionService creates a session service.
func NewSessionService(store SessionStore, bundles BundleService, engine PricingEngine, submitter CartSubmitter) *SessionServiceImpl {
	return &SessionServiceImpl{
		store:     store,
		bundles:   bundles,
		engine:    engine,
		submitter: submitter,
	}
}

// Open starts an empty selection for a bundle.
func (s *SessionServiceImpl) Open(ctx context.Context, bundleID string) (*model.SessionView, error) {
	bundle, err := s.bundles.Get(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		BundleID:  bundle.ID,
		Selection: model.NewSelection(bundle.ID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.RecordSessionEvent("opened")
	return s.view(bundle, session), nil
}

// Get returns the session and a quote of its selection against the current bundle.
func (s *SessionServiceImpl) Get(ctx context.Context, id string) (*model.SessionView, error) {
	session, bundle, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Selection = session.Selection.Normalize(bundle)
	return s.view(bundle, session), nil
}

// Apply replays actions on the session selection atomically: if any action
// fails, none is stored.
func (s *SessionServiceImpl) Apply(ctx context.Context, id string, actions ...model.Action) (*model.SessionView, error) {
	_, bundle, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, func(session *model.Session) error {
		next, err := session.Selection.Normalize(bundle).ApplyAll(bundle, actions)
		if err != nil {
			return err
		}
		session.Selection = next
		session.Version++
		session.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(bundle, updated), nil
}

// Submit hands the session selection to the cart. The session is keyed as
// the in-flight owner, so overlapping submissions are refused.
func (s *SessionServiceImpl) Submit(ctx context.Context, id string) (*model.SubmitResult, error) {
	session, bundle, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.submitter.Submit(ctx, SubmitRequest{
		OwnerKey:  "session:" + session.ID,
		Bundle:    bundle,
		Selection: session.Selection.Normalize(bundle),
	})
}

// Close discards the session.
func (s *SessionServiceImpl) Close(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.RecordSessionEvent("closed")
	return nil
}

func (s *SessionServiceImpl) load(ctx context.Context, id string) (*model.Session, *model.Bundle, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	bundle, err := s.bundles.Get(ctx, session.BundleID)
	if err != nil {
		return nil, nil, err
	}
	return session, bundle, nil
}

func (s *SessionServiceImpl) view(bundle *model.Bundle, session *model.Session) *model.SessionView {
	return &model.SessionView{
		Session: *session,
		Quote:   s.engine.Evaluate(bundle, session.Selection),
	}
}
