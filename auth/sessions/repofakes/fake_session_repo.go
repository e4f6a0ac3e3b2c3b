package fakesessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-control-plane/auth/sessions"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/internal/ids"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if session.ID == "" {
		session.ID = ids.New()
	}
	stored := *session
	sr.sessions[session.ID] = &stored
	return nil
}

func (sr *FakeSessionRepo) FindActive(_ context.Context, token string, now time.Time) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	for _, s := range sr.sessions {
		if s.Token == token && s.Usable(now) {
			session := *s
			return &session, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (sr *FakeSessionRepo) DeactivateByToken(_ context.Context, token string) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	n := 0
	for _, s := range sr.sessions {
		if s.Token == token && s.IsActive {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

func (sr *FakeSessionRepo) UpdateToken(_ context.Context, id, token string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[id]
	if !ok {
		return errors.ErrNotFound
	}
	s.Token = token
	return nil
}

// All returns every stored session ordered by id.
func (sr *FakeSessionRepo) All() []sessions.Session {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	all := make([]sessions.Session, 0, len(sr.sessions))
	for _, s := range sr.sessions {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}
