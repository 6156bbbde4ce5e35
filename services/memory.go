package services

import (
	"strings"
	"sync"
	"time"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role      string
	Text      string
	Timestamp time.Time
}

// SessionMemory is a bounded, in-process conversation buffer keyed by
// session id. It is a cache, not a system of record: a restart clears it.
// Access for a given session is serialized by the session's own lock;
// sessions never contend with each other beyond map lookup.
type SessionMemory struct {
	mu           sync.Mutex
	sessions     map[string]*sessionBuffer
	maxExchanges int
}

type sessionBuffer struct {
	mu    sync.Mutex
	turns []Turn
}

// NewSessionMemory builds a store keeping at most maxExchanges
// question/answer pairs per session.
func NewSessionMemory(maxExchanges int) *SessionMemory {
	if maxExchanges <= 0 {
		maxExchanges = 5
	}
	return &SessionMemory{
		sessions:     make(map[string]*sessionBuffer),
		maxExchanges: maxExchanges,
	}
}

// Append records one exchange, evicting the oldest once over capacity.
func (m *SessionMemory) Append(sessionID, question, answer string) {
	if sessionID == "" {
		return
	}
	buf := m.buffer(sessionID)
	buf.mu.Lock()
	defer buf.mu.Unlock()

	now := time.Now()
	buf.turns = append(buf.turns,
		Turn{Role: "user", Text: question, Timestamp: now},
		Turn{Role: "assistant", Text: answer, Timestamp: now},
	)
	if max := m.maxExchanges * 2; len(buf.turns) > max {
		buf.turns = buf.turns[len(buf.turns)-max:]
	}
}

// Render flattens a session's turns into a transcript for prompt injection.
// Unknown sessions render empty.
func (m *SessionMemory) Render(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	m.mu.Lock()
	buf, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return ""
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var sb strings.Builder
	for _, t := range buf.turns {
		switch t.Role {
		case "user":
			sb.WriteString("User: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Len reports the number of active sessions.
func (m *SessionMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Clear drops all sessions.
func (m *SessionMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*sessionBuffer)
}

func (m *SessionMemory) buffer(sessionID string) *sessionBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.sessions[sessionID]
	if !ok {
		buf = &sessionBuffer{}
		m.sessions[sessionID] = buf
	}
	return buf
}
