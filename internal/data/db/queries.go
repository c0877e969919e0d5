package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
}

// Queries holds every statement the stores run.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx}
}

// KvStore is a row of kv_store.
type KvStore struct {
	Key       string `db:"key"`
	Value     []byte `db:"value"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// Notification is a row of notifications.
type Notification struct {
	ID        int64  `db:"id"`
	Level     string `db:"level"`
	Message   string `db:"message"`
	CreatedAt int64  `db:"created_at"`
}

// UserProgress is a row of user_progress.
type UserProgress struct {
	UserID    string `db:"user_id"`
	Data      []byte `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

const kvGet = `SELECT key, value, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var row KvStore
	err := sqlx.GetContext(ctx, q.db, &row, kvGet, key)
	return row, err
}

const kvSet = `
INSERT INTO kv_store (key, value, created_at, updated_at)
VALUES (:key, :value, :created_at, :updated_at)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`

type KVSetParams struct {
	Key       string `db:"key"`
	Value     []byte `db:"value"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, kvSet, arg)
	return err
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvHas = `SELECT COUNT(*) FROM kv_store WHERE key = ?`

func (q *Queries) KVHas(ctx context.Context, key string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, q.db, &count, kvHas, key)
	return count, err
}

const kvListKeys = `SELECT key FROM kv_store ORDER BY key`

func (q *Queries) KVListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := sqlx.SelectContext(ctx, q.db, &keys, kvListKeys)
	return keys, err
}

const kvListKeysPrefix = `SELECT key FROM kv_store WHERE substr(key, 1, length(?)) = ? ORDER BY key`

func (q *Queries) KVListKeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := sqlx.SelectContext(ctx, q.db, &keys, kvListKeysPrefix, prefix, prefix)
	return keys, err
}

const insertNotification = `
INSERT INTO notifications (level, message, created_at)
VALUES (?, ?, ?)`

type InsertNotificationParams struct {
	Level     string
	Message   string
	CreatedAt int64
}

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertNotification, arg.Level, arg.Message, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listNotifications = `
SELECT id, level, message, created_at FROM notifications
ORDER BY created_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListNotifications(ctx context.Context, limit int64) ([]Notification, error) {
	var rows []Notification
	err := sqlx.SelectContext(ctx, q.db, &rows, listNotifications, limit)
	return rows, err
}

const deleteAllNotifications = `DELETE FROM notifications`

func (q *Queries) DeleteAllNotifications(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotifications)
	return err
}

const countNotifications = `SELECT COUNT(*) FROM notifications`

func (q *Queries) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, q.db, &count, countNotifications)
	return count, err
}

const getUserProgress = `SELECT user_id, data, updated_at FROM user_progress WHERE user_id = ?`

func (q *Queries) GetUserProgress(ctx context.Context, userID string) (UserProgress, error) {
	var row UserProgress
	err := sqlx.GetContext(ctx, q.db, &row, getUserProgress, userID)
	return row, err
}

const upsertUserProgress = `
INSERT INTO user_progress (user_id, data, updated_at)
VALUES (:user_id, :data, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
    data = excluded.data,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertUserProgress(ctx context.Context, arg UserProgress) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertUserProgress, arg)
	return err
}

const deleteUserProgress = `DELETE FROM user_progress WHERE user_id = ?`

func (q *Queries) DeleteUserProgress(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserProgress, userID)
	return err
}
