package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/data/db"
)

// ProgressStore keeps one progress document per signed-in user. It backs the
// HTTP server's /user endpoints.
type ProgressStore struct {
	db  *db.DB
	now func() time.Time
}

// NewProgressStore creates a SQLite-backed per-user progress store.
func NewProgressStore(db *db.DB) *ProgressStore {
	return &ProgressStore{db: db, now: time.Now}
}

// Load returns the document for userID, or an error wrapping
// persist.ErrNoData when the user has never saved.
func (s *ProgressStore) Load(ctx context.Context, userID string) (progress.Data, error) {
	row, err := s.db.Queries().GetUserProgress(ctx, userID)
	if err != nil {
		if IsNotFoundError(err) {
			return progress.Data{}, fmt.Errorf("user %q: %w", userID, persist.ErrNoData)
		}
		return progress.Data{}, fmt.Errorf("get progress %q: %w", userID, err)
	}

	var data progress.Data
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return progress.Data{}, fmt.Errorf("decode progress %q: %w", userID, err)
	}
	return data, nil
}

// Save replaces the document for userID.
func (s *ProgressStore) Save(ctx context.Context, userID string, data progress.Data) error {
	if userID == "" {
		return errors.New("save progress: empty user id")
	}
	if data.DeletedIDs == nil {
		data.DeletedIDs = []string{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode progress %q: %w", userID, err)
	}

	if err := s.db.Queries().UpsertUserProgress(ctx, db.UserProgress{
		UserID:    userID,
		Data:      raw,
		UpdatedAt: s.now().UnixNano(),
	}); err != nil {
		return fmt.Errorf("save progress %q: %w", userID, err)
	}
	return nil
}

// Delete drops the document for userID. Deleting a missing user is not an
// error.
func (s *ProgressStore) Delete(ctx context.Context, userID string) error {
	if err := s.db.Queries().DeleteUserProgress(ctx, userID); err != nil {
		return fmt.Errorf("delete progress %q: %w", userID, err)
	}
	return nil
}
