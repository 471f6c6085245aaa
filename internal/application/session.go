package app

import (
	"sync"
	"time"
)

// Session сценарии одного чата
type Session struct {
	Mask    *MaskWorkflow
	Retouch *RetouchService
}

// SessionFactory создаёт сессию для чата
type SessionFactory func(chatID int64) *Session

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// SessionService хранит сессии по чатам. У каждого чата свой набор точек.
// Сессии без обращений дольше idleTTL удаляются через EvictIdle.
type SessionService struct {
	factory  SessionFactory
	idleTTL  time.Duration
	now      func() time.Time
	sessions map[int64]*sessionEntry
	mu       sync.Mutex
}

// NewSessionService создаёт хранилище сессий. idleTTL <= 0 отключает вытеснение.
func NewSessionService(factory SessionFactory, idleTTL time.Duration) *SessionService {
	return &SessionService{
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[int64]*sessionEntry),
	}
}

// Get возвращает сессию чата, создавая её при первом обращении
func (s *SessionService) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[chatID]
	if !ok {
		e = &sessionEntry{session: s.factory(chatID)}
		s.sessions[chatID] = e
	}
	e.lastSeen = s.now()
	return e.session
}

// Drop забывает сессию чата
func (s *SessionService) Drop(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// EvictIdle удаляет простаивающие сессии и возвращает их чаты.
// Сессия с запросом маски в полёте не удаляется.
func (s *SessionService) EvictIdle() []int64 {
	if s.idleTTL <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(-s.idleTTL)
	var evicted []int64
	for chatID, e := range s.sessions {
		if e.lastSeen.After(deadline) {
			continue
		}
		if e.session.Mask != nil && e.session.Mask.Collector().Busy() {
			continue
		}
		delete(s.sessions, chatID)
		evicted = append(evicted, chatID)
	}
	return evicted
}

// Len количество активных сессий
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
