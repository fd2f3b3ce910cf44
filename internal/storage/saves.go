package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	ErrSaveNotFound    = errors.New("save not found")
	ErrInvalidSaveName = errors.New("invalid save name")
)

// MaxSaveNameLength bounds slot names
const MaxSaveNameLength = 64

// Save is a stored game blob. The blob is opaque to this package; Round and
// Players are copied out of it for listings.
type Save struct {
	Name      string
	Round     string
	Players   int
	Blob      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveInfo is the listing view of a save slot
type SaveInfo struct {
	Name      string    `json:"name"`
	Round     string    `json:"round"`
	Players   int       `json:"players"`
	Size      int       `json:"size"`
	SizeHuman string    `json:"sizeHuman"`
	UpdatedAt time.Time `json:"updatedAt"`
	Age       string    `json:"age"`
}

// SaveRepository stores named save slots
type SaveRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSaveRepository creates a repository on an opened database
func NewSaveRepository(db *sql.DB) *SaveRepository {
	return &SaveRepository{db: db, now: time.Now}
}

// ValidateName checks that a slot name is usable
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidSaveName)
	}
	if len(name) > MaxSaveNameLength {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidSaveName, MaxSaveNameLength)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: name contains a path separator", ErrInvalidSaveName)
	}
	return nil
}

// Put creates or overwrites a save slot
func (r *SaveRepository) Put(ctx context.Context, save Save) error {
	if err := ValidateName(save.Name); err != nil {
		return err
	}

	now := r.now().UTC().UnixMilli()
	query := `
		INSERT INTO saves (name, round, players, blob, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			round=excluded.round,
			players=excluded.players,
			blob=excluded.blob,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, save.Name, save.Round, save.Players, save.Blob, now, now)
	if err != nil {
		return fmt.Errorf("failed to store save %q: %w", save.Name, err)
	}
	return nil
}

// Get loads a save slot
func (r *SaveRepository) Get(ctx context.Context, name string) (Save, error) {
	query := `SELECT name, round, players, blob, created_at, updated_at FROM saves WHERE name = ?`

	var (
		s                Save
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&s.Name, &s.Round, &s.Players, &s.Blob, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, fmt.Errorf("%w: %q", ErrSaveNotFound, name)
	}
	if err != nil {
		return Save{}, fmt.Errorf("failed to load save %q: %w", name, err)
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	s.UpdatedAt = time.UnixMilli(updated).UTC()
	return s, nil
}

// List returns every slot, most recently updated first
func (r *SaveRepository) List(ctx context.Context) ([]SaveInfo, error) {
	query := `SELECT name, round, players, length(blob), updated_at FROM saves ORDER BY updated_at DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	now := r.now()
	infos := []SaveInfo{}
	for rows.Next() {
		var (
			info    SaveInfo
			updated int64
		)
		if err := rows.Scan(&info.Name, &info.Round, &info.Players, &info.Size, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.UnixMilli(updated).UTC()
		info.SizeHuman = humanize.Bytes(uint64(info.Size))
		info.Age = humanize.RelTime(info.UpdatedAt, now, "ago", "from now")
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a save slot
func (r *SaveRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete save %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrSaveNotFound, name)
	}
	return nil
}
