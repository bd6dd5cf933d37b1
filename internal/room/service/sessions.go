package service

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ============================================================
// Session Locks
// ============================================================

type operation int

const (
	opAnalyze operation = iota
	opRender
)

type sessionState struct {
	key  string
	refs int // под SessionLocks.mu

	mu sync.Mutex

	// started растёт без мьютекса, committed меняется только под mu.
	started   [2]atomic.Uint64
	committed [2]uint64

	// layout увеличивается под mu при каждой записи current.
	layout atomic.Uint64
}

// SessionLocks выдаёт мьютекс на сессию и следит за поколениями анализа и
// рендера: результат, начатый раньше уже закоммиченного, устарел.
// Запись о сессии живёт, пока её кто-то держит, и удаляется после
// последнего Release.
type SessionLocks struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		sessions: make(map[string]*sessionState),
	}
}

// NewSessionID выдаёт идентификатор новой сессии.
func NewSessionID() string {
	return uuid.NewString()
}

// Len возвращает число сессий, по которым сейчас идут операции.
func (m *SessionLocks) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Acquire берёт запись сессии. Вызывающий обязан вызвать Release.
func (m *SessionLocks) Acquire(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[sessionID]
	if !ok {
		// строка может ссылаться на буфер запроса, который fiber переиспользует
		key := strings.Clone(sessionID)
		st = &sessionState{key: key}
		m.sessions[key] = st
	}
	st.refs++
	return &Session{locks: m, st: st}
}

func (m *SessionLocks) release(st *sessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st.refs--
	if st.refs == 0 {
		delete(m.sessions, st.key)
	}
}

// ============================================================
// Session
// ============================================================

// Session - удерживаемая запись сессии.
type Session struct {
	locks    *SessionLocks
	st       *sessionState
	released atomic.Bool
}

// ticket фиксирует, с какого состояния сессии началась операция.
type ticket struct {
	op     operation
	gen    uint64
	layout uint64
}

func (s *Session) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.locks.release(s.st)
	}
}

func (s *Session) Lock()   { s.st.mu.Lock() }
func (s *Session) Unlock() { s.st.mu.Unlock() }

// begin регистрирует начало операции. Для рендера вызывается под Lock
// вместе с чтением current, чтобы версия раскладки совпадала с прочитанной.
func (s *Session) begin(op operation) ticket {
	return ticket{
		op:     op,
		gen:    s.st.started[op].Add(1),
		layout: s.st.layout.Load(),
	}
}

// commitLocked отмечает операцию закоммиченной. Вызывается под Lock.
// false - уже закоммичен более поздний результат, либо рендер начат по
// раскладке, которую с тех пор заменили.
func (s *Session) commitLocked(t ticket) bool {
	st := s.st
	if t.gen < st.committed[t.op] {
		return false
	}
	if t.op == opRender && st.layout.Load() != t.layout {
		return false
	}
	st.committed[t.op] = t.gen
	if t.op == opAnalyze {
		st.layout.Add(1)
	}
	return true
}

// layoutChangedLocked отмечает новую запись current. Вызывается под Lock.
func (s *Session) layoutChangedLocked() {
	s.st.layout.Add(1)
}
