package client

import (
	"context"
	"sync"

	"github.com/trezcool/ecomasomo/core"
)

type (
	// State is a snapshot of the cached user state. Profile is nil when nobody is logged in.
	State struct {
		Profile *Profile
		Loading bool
	}

	ProfileFetcher interface {
		Profile(ctx context.Context) (Profile, error)
	}

	// Store caches the profile of the logged in user.
	// Overlapping refreshes are sequenced: the last initiated one wins
	// and responses of older refreshes are discarded.
	Store struct {
		api    ProfileFetcher
		tokens TokenStore
		logger core.Logger

		mu      sync.Mutex
		state   State
		seq     uint64 // last initiated refresh
		applied uint64 // last applied refresh
		subs    map[int]func(State)
		nextSub int
	}
)

func NewStore(api ProfileFetcher, tokens TokenStore, logger core.Logger) *Store {
	return &Store{
		api:    api,
		tokens: tokens,
		logger: logger,
		state:  State{Loading: true},
		subs:   make(map[int]func(State)),
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called after every applied state change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Init performs the first load of the profile.
func (s *Store) Init(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the profile. Without a stored credential the profile is marked absent
// without calling the API. A failed fetch clears the credential, forcing a new login.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	token, err := s.tokens.Token()
	if err != nil {
		s.logger.Error("reading credential", err)
	}
	if token == "" {
		s.apply(seq, nil, false)
		return nil
	}

	prof, err := s.api.Profile(ctx)
	if err != nil {
		if s.apply(seq, nil, true) {
			s.logger.Warn("profile refresh failed, credential cleared", err)
		}
		return err
	}
	s.apply(seq, &prof, false)
	return nil
}

// apply stores the outcome of refresh seq unless a newer refresh has already been applied.
func (s *Store) apply(seq uint64, prof *Profile, clearToken bool) bool {
	s.mu.Lock()
	if seq < s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = seq
	if clearToken {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Error("clearing credential", err)
		}
	}
	s.state = State{Profile: prof, Loading: false}
	state := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return true
}

func (st State) clone() State {
	if st.Profile != nil {
		prof := *st.Profile
		st.Profile = &prof
	}
	return st
}
