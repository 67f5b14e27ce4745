package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/shared"
)

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

const sessionColumns = `id, sequence, user_id, email, display_name, provider_id, id_token, refresh_token, expires_at, created_at, updated_at`

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// At most one session is active at a time; [SessionRepository.Save] soft-deletes the previous one.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	session.SetID(shared.GenerateID())
	session.SetSequence(sequence)

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		session.ID(), sequence, session.UserID(), session.Email(), session.DisplayName(),
		session.ProviderID(), session.IDToken(), session.RefreshToken(), session.ExpiresAt(),
		session.CreatedAt(), session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding signed-out sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND deleted_at IS NULL`

	session, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	return session, err
}

// Update stores the display name and tokens of an existing session
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET display_name = ?, id_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		session.DisplayName(), session.IDToken(), session.RefreshToken(), session.ExpiresAt(), now, session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: session not found or signed out: %s", shared.ErrNotFound, session.ID())
	}

	return nil
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: session not found or signed out: %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves sessions matching criteria ("user_id", "provider_id", "include_deleted")
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	args := []any{}

	if deleted, _ := criteria["include_deleted"].(bool); !deleted {
		query += " AND deleted_at IS NULL"
	}
	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if providerID, ok := criteria["provider_id"].(string); ok && providerID != "" {
		query += " AND provider_id = ?"
		args = append(args, providerID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Save replaces the active session with session.
func (r *SessionRepository) Save(session *models.Session) error {
	if err := r.Clear(); err != nil {
		return err
	}
	return r.Create(session)
}

// Current returns the most recent active session, or [shared.ErrNotAuthenticated].
func (r *SessionRepository) Current() (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`

	session, err := r.scan(r.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotAuthenticated
	}
	return session, err
}

// Clear soft-deletes every active session. Clearing with no active session is not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`UPDATE sessions SET deleted_at = ? WHERE deleted_at IS NULL`, time.Now()); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

// scan reads a row into a [models.Session]. [sql.ErrNoRows] is returned unwrapped.
func (r *SessionRepository) scan(row scanner) (*models.Session, error) {
	var (
		id           string
		sequence     int
		userID       string
		email        string
		displayName  string
		providerID   string
		idToken      string
		refreshToken string
		expiresAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&id, &sequence, &userID, &email, &displayName, &providerID,
		&idToken, &refreshToken, &expiresAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session := models.NewSession(userID, email, displayName, providerID, idToken, refreshToken, expiresAt)
	session.SetID(id)
	session.SetSequence(sequence)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)

	return session, nil
}
