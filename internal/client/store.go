package client

import "sync"

// Store holds State and applies actions to it one at a time.
//
// Responses are dispatched in the order they arrive, not the order their
// requests were made, so a slow stale response can overwrite a newer one for
// the same slice. Callers that care must serialise their requests.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewStore restores the signed-in user and the cart from session.
func NewStore(session *Session) (*Store, error) {
	var initial State
	if session != nil {
		info, err := session.UserInfo()
		if err != nil {
			return nil, err
		}
		initial.UserLogin.Data = info

		cart, err := session.Cart()
		if err != nil {
			return nil, err
		}
		initial.Cart = cart
	}
	return &Store{state: initial, subs: map[int]func(State){}}, nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and then notifies subscribers with the new state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
