package bot

import (
	"sync"
	"time"
)

type inputStep string

const (
	stepNone        inputStep = "none"
	stepSlotCount   inputStep = "slot_count"
	stepDuration    inputStep = "duration"
	stepWindowStart inputStep = "window_start"
	stepWindowEnd   inputStep = "window_end"
	stepIncrement   inputStep = "increment"
	stepDays        inputStep = "days"
	stepMaxPerDay   inputStep = "max_per_day"
	stepAvoidTime   inputStep = "avoid_time"
)

type userState struct {
	Step     inputStep
	AvoidDay time.Weekday // set while an avoid interval is being entered
}

type stateStore struct {
	mu sync.Mutex
	m  map[int64]*userState
}

func newStateStore() *stateStore {
	return &stateStore{m: make(map[int64]*userState)}
}

func (s *stateStore) get(userID int64) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.m[userID]
	if st == nil {
		st = &userState{Step: stepNone}
		s.m[userID] = st
	}
	return st
}

func (s *stateStore) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
