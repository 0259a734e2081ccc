package channel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the forward-map (channel_type, account_id, chat_id) →
// session_key, per-session metadata (sequential chat label, pinned model,
// channel binding), and the channel_location pending-invoke map, all in a
// single pure-Go sqlite database. No network database is needed: this is a
// single-node, self-hosted deployment.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and ensures
// its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open channel store: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: serialize writers to avoid SQLITE_BUSY

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS forward_map (
			channel_type TEXT NOT NULL,
			account_id   TEXT NOT NULL,
			chat_id      TEXT NOT NULL,
			session_key  TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			PRIMARY KEY (channel_type, account_id, chat_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			channel_type    TEXT NOT NULL,
			chat_id         TEXT NOT NULL,
			session_key     TEXT NOT NULL,
			label           INTEGER NOT NULL,
			model           TEXT NOT NULL DEFAULT '',
			channel_binding TEXT NOT NULL DEFAULT '',
			message_index   INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,
			PRIMARY KEY (channel_type, chat_id, session_key)
		)`,
		`CREATE TABLE IF NOT EXISTS pending_invokes (
			invoke_key TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure channel store schema: %w", err)
		}
	}
	return nil
}

// ForwardKey is the composite identity of one inbound channel chat.
type ForwardKey struct {
	ChannelType string
	AccountID   string
	ChatID      string
}

// DefaultSessionKey is the deterministic key used absent a forward-map
// override.
func (k ForwardKey) DefaultSessionKey() string {
	return fmt.Sprintf("%s:%s:%s", k.ChannelType, k.AccountID, k.ChatID)
}

// ResolveSessionKey consults the persisted forward-map override first,
// falling back to the deterministic default key.
func (s *Store) ResolveSessionKey(ctx context.Context, key ForwardKey) (string, error) {
	var sessionKey string
	row := s.db.QueryRowContext(ctx,
		`SELECT session_key FROM forward_map WHERE channel_type = ? AND account_id = ? AND chat_id = ?`,
		key.ChannelType, key.AccountID, key.ChatID)
	err := row.Scan(&sessionKey)
	if err == sql.ErrNoRows {
		return key.DefaultSessionKey(), nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve session key: %w", err)
	}
	return sessionKey, nil
}

// SetForwardOverride pins key to sessionKey in the forward-map, used by
// /new and /sessions N.
func (s *Store) SetForwardOverride(ctx context.Context, key ForwardKey, sessionKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forward_map (channel_type, account_id, chat_id, session_key, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel_type, account_id, chat_id)
		DO UPDATE SET session_key = excluded.session_key, updated_at = excluded.updated_at
	`, key.ChannelType, key.AccountID, key.ChatID, sessionKey, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set forward override: %w", err)
	}
	return nil
}

// SessionRow is one chat-scoped session row.
type SessionRow struct {
	ChannelType    string
	ChatID         string
	SessionKey     string
	Label          int
	Model          string
	ChannelBinding string
	MessageIndex   int
}

// EnsureSession upserts a session row for (channelType, chatID, sessionKey),
// assigning the next sequential label within that chat if the row is new.
func (s *Store) EnsureSession(ctx context.Context, channelType, chatID, sessionKey string) (SessionRow, error) {
	var row SessionRow
	err := s.db.QueryRowContext(ctx, `
		SELECT channel_type, chat_id, session_key, label, model, channel_binding, message_index
		FROM chat_sessions WHERE channel_type = ? AND chat_id = ? AND session_key = ?
	`, channelType, chatID, sessionKey).Scan(&row.ChannelType, &row.ChatID, &row.SessionKey, &row.Label, &row.Model, &row.ChannelBinding, &row.MessageIndex)
	if err == nil {
		return row, nil
	}
	if err != sql.ErrNoRows {
		return SessionRow{}, fmt.Errorf("lookup session row: %w", err)
	}

	var maxLabel int
	if scanErr := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(label), 0) FROM chat_sessions WHERE channel_type = ? AND chat_id = ?`,
		channelType, chatID).Scan(&maxLabel); scanErr != nil {
		return SessionRow{}, fmt.Errorf("compute next session label: %w", scanErr)
	}
	label := maxLabel + 1

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (channel_type, chat_id, session_key, label, model, channel_binding, message_index, created_at)
		VALUES (?, ?, ?, ?, '', '', 0, ?)
	`, channelType, chatID, sessionKey, label, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return SessionRow{}, fmt.Errorf("insert session row: %w", err)
	}

	return SessionRow{ChannelType: channelType, ChatID: chatID, SessionKey: sessionKey, Label: label}, nil
}

// SetChannelBindingIfAbsent stores binding as the session's persisted
// channel_binding, but only if one is not already set.
func (s *Store) SetChannelBindingIfAbsent(ctx context.Context, sessionKey string, binding ReplyTarget) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions SET channel_binding = ?
		WHERE session_key = ? AND channel_binding = ''
	`, binding.serialize(), sessionKey)
	if err != nil {
		return fmt.Errorf("set channel binding: %w", err)
	}
	return nil
}

// SetSessionModel persists the model first chosen for a session.
func (s *Store) SetSessionModel(ctx context.Context, sessionKey, model string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET model = ? WHERE session_key = ?`, model, sessionKey)
	if err != nil {
		return fmt.Errorf("set session model: %w", err)
	}
	return nil
}

// NextMessageIndex atomically increments and returns the session's
// message-dedupe index.
func (s *Store) NextMessageIndex(ctx context.Context, sessionKey string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin message index update: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET message_index = message_index + 1 WHERE session_key = ?`, sessionKey); err != nil {
		return 0, fmt.Errorf("increment message index: %w", err)
	}
	var idx int
	if err := tx.QueryRowContext(ctx, `SELECT message_index FROM chat_sessions WHERE session_key = ?`, sessionKey).Scan(&idx); err != nil {
		return 0, fmt.Errorf("read message index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit message index update: %w", err)
	}
	return idx, nil
}

// ListSessionsForChat returns every session bound to (channelType, chatID),
// ordered by label.
func (s *Store) ListSessionsForChat(ctx context.Context, channelType, chatID string) ([]SessionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_type, chat_id, session_key, label, model, channel_binding, message_index
		FROM chat_sessions WHERE channel_type = ? AND chat_id = ? ORDER BY label ASC
	`, channelType, chatID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for chat: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.ChannelType, &row.ChatID, &row.SessionKey, &row.Label, &row.Model, &row.ChannelBinding, &row.MessageIndex); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SavePendingInvoke stores a tool-initiated request awaiting fulfillment,
// keyed e.g. "channel_location:{session_key}".
func (s *Store) SavePendingInvoke(ctx context.Context, key, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_invokes (invoke_key, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT (invoke_key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at
	`, key, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save pending invoke: %w", err)
	}
	return nil
}

// ConsumePendingInvoke fetches and deletes a pending invoke, reporting
// whether one was found.
func (s *Store) ConsumePendingInvoke(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM pending_invokes WHERE invoke_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume pending invoke: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_invokes WHERE invoke_key = ?`, key); err != nil {
		return "", false, fmt.Errorf("delete pending invoke: %w", err)
	}
	return payload, true, nil
}
