package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

const sessionColumns = `
	id,
	user_id,
	token,
	is_active,
	COALESCE(device_type, ''),
	COALESCE(device_id, ''),
	COALESCE(user_agent, ''),
	COALESCE(ip, ''),
	created_at,
	last_active_at,
	terminated_at,
	COALESCE(termination_reason, '')`

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, session model.Session) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.Token) == "" || session.UserID <= 0 {
		return sessionsvc.ErrInvalidInput
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO sessions (
	id,
	user_id,
	token,
	is_active,
	device_type,
	device_id,
	user_agent,
	ip,
	created_at,
	last_active_at
) VALUES ($1, $2, $3, TRUE, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $8)
`,
		session.ID,
		session.UserID,
		session.Token,
		string(session.DeviceType),
		session.DeviceID,
		session.UserAgent,
		session.IP,
		session.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetActive looks a session up by its opaque token and owning user,
// requiring it to still be active.
func (r *SessionRepo) GetActive(ctx context.Context, token string, userID int64) (model.Session, error) {
	if r.pool == nil {
		return model.Session{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(token) == "" || userID <= 0 {
		return model.Session{}, sessionsvc.ErrSessionNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+sessionColumns+`
FROM sessions
WHERE token = $1
  AND user_id = $2
  AND is_active = TRUE
`, token, userID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, sessionsvc.ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("get active session: %w", err)
	}

	return session, nil
}

// Touch refreshes the liveness timestamp. GREATEST keeps last_active_at
// monotonic under concurrent refreshes.
func (r *SessionRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(sessionID) == "" {
		return sessionsvc.ErrInvalidInput
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE sessions
SET last_active_at = GREATEST(last_active_at, $2)
WHERE id = $1
  AND is_active = TRUE
`, sessionID, at.UTC()); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	return nil
}

// Terminate deactivates one session owned by userID. A session that exists
// but belongs to another user yields ErrSessionNotFound, same as a missing
// id.
func (r *SessionRepo) Terminate(ctx context.Context, sessionID string, userID int64, reason enums.TerminationReason, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(sessionID) == "" || userID <= 0 || !reason.Valid() {
		return sessionsvc.ErrInvalidInput
	}

	res, err := r.pool.Exec(ctx, `
UPDATE sessions
SET is_active = FALSE,
    terminated_at = $4,
    termination_reason = $3
WHERE id = $1
  AND user_id = $2
  AND is_active = TRUE
`, sessionID, userID, string(reason), at.UTC())
	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	if res.RowsAffected() == 0 {
		return sessionsvc.ErrSessionNotFound
	}

	return nil
}

// TerminateOthers deactivates every other active session of the user and
// returns the ids it touched.
func (r *SessionRepo) TerminateOthers(ctx context.Context, userID int64, keepSessionID string, reason enums.TerminationReason, at time.Time) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || !reason.Valid() {
		return nil, sessionsvc.ErrInvalidInput
	}

	rows, err := r.pool.Query(ctx, `
UPDATE sessions
SET is_active = FALSE,
    terminated_at = $4,
    termination_reason = $3
WHERE user_id = $1
  AND id <> $2
  AND is_active = TRUE
RETURNING id
`, userID, keepSessionID, string(reason), at.UTC())
	if err != nil {
		return nil, fmt.Errorf("terminate other sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan terminated session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terminated sessions: %w", err)
	}

	return ids, nil
}

// TerminateIdle deactivates active sessions whose liveness timestamp fell
// behind the cutoff, returning (session, user) pairs for notification.
func (r *SessionRepo) TerminateIdle(ctx context.Context, cutoff, at time.Time) ([]sessionsvc.IdleTermination, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
UPDATE sessions
SET is_active = FALSE,
    terminated_at = $2,
    termination_reason = $3
WHERE is_active = TRUE
  AND last_active_at < $1
RETURNING id, user_id
`, cutoff.UTC(), at.UTC(), string(enums.TerminationTimeout))
	if err != nil {
		return nil, fmt.Errorf("terminate idle sessions: %w", err)
	}
	defer rows.Close()

	var out []sessionsvc.IdleTermination
	for rows.Next() {
		var item sessionsvc.IdleTermination
		if err := rows.Scan(&item.SessionID, &item.UserID); err != nil {
			return nil, fmt.Errorf("scan idle termination: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idle terminations: %w", err)
	}

	return out, nil
}

// ListRecent returns the user's sessions ordered by liveness, newest first.
func (r *SessionRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]model.Session, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, sessionsvc.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+sessionColumns+`
FROM sessions
WHERE user_id = $1
ORDER BY last_active_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var (
		session    model.Session
		deviceType string
		reason     string
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.IsActive,
		&deviceType,
		&session.DeviceID,
		&session.UserAgent,
		&session.IP,
		&session.CreatedAt,
		&session.LastActiveAt,
		&session.TerminatedAt,
		&reason,
	); err != nil {
		return model.Session{}, err
	}

	session.DeviceType = enums.DeviceType(deviceType)
	session.TerminationReason = enums.TerminationReason(reason)
	return session, nil
}
