package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ragchat/internal/rag"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("chat session not found")

type Session struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type Message struct {
	ID         int64                 `db:"id" json:"id"`
	SessionID  int64                 `db:"session_id" json:"session_id"`
	Role       string                `db:"role" json:"role"`
	Content    string                `db:"content" json:"content"`
	RawSources sql.NullString        `db:"sources" json:"-"`
	Sources    []rag.SourceReference `json:"sources,omitempty"`
	CreatedAt  time.Time             `db:"created_at" json:"created_at"`
}

// Service persists chat sessions and their messages.
type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

func (s *Service) CreateSession(ctx context.Context, title string) (*Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_sessions (title, created_at) VALUES (?, ?)", title, now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	return &Session{ID: id, Title: title, CreatedAt: now}, nil
}

// ListSessions returns sessions most recently active first.
func (s *Service) ListSessions(ctx context.Context, page, pageSize int) ([]Session, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var sessions []Session
	err := s.db.SelectContext(ctx, &sessions,
		`SELECT id, title, created_at, updated_at FROM chat_sessions
		 ORDER BY COALESCE(updated_at, created_at) DESC, created_at DESC
		 LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) GetSession(ctx context.Context, id int64) (*Session, error) {
	var session Session
	err := s.db.GetContext(ctx, &session,
		"SELECT id, title, created_at, updated_at FROM chat_sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session and all its messages.
func (s *Service) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Messages returns a session's messages oldest first, with sources decoded.
func (s *Service) Messages(ctx context.Context, sessionID int64) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		`SELECT id, session_id, role, content, sources, created_at FROM chat_messages
		 WHERE session_id = ? ORDER BY created_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	for i := range messages {
		messages[i].decodeSources()
	}
	return messages, nil
}

// AppendMessage stores one message. An assistant reply also bumps the
// session's updated_at so recently active sessions sort first.
func (s *Service) AppendMessage(ctx context.Context, sessionID int64, role, content string, sources []rag.SourceReference) (*Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var rawSources sql.NullString
	if len(sources) > 0 {
		encoded, err := json.Marshal(sources)
		if err != nil {
			return nil, fmt.Errorf("encode sources: %w", err)
		}
		rawSources = sql.NullString{String: string(encoded), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, sources, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, rawSources, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	if role == "assistant" {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE chat_sessions SET updated_at = ? WHERE id = ?", now, sessionID); err != nil {
			return nil, fmt.Errorf("touch session: %w", err)
		}
	}

	return &Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: now,
	}, nil
}

func (m *Message) decodeSources() {
	if !m.RawSources.Valid || m.RawSources.String == "" {
		return
	}
	// Bad persisted JSON leaves the message without sources rather than
	// failing the whole listing.
	_ = json.Unmarshal([]byte(m.RawSources.String), &m.Sources)
}
