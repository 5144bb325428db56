package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLockLost — соединение больше не держит advisory lock.
var ErrLockLost = errors.New("advisory lock lost")

// AdvisoryLock — сессионный pg_try_advisory_lock на выделенном соединении.
// Блокировка живёт, пока живо соединение, поэтому оно не возвращается в пул
// до Release.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
}

// NewAdvisoryLock создаёт AdvisoryLock с ключом key.
func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

// AdvisoryLease — удерживаемая блокировка.
type AdvisoryLease struct {
	conn *pgxpool.Conn
	key  int64
}

// TryLock берёт блокировку без ожидания.
func (l *AdvisoryLock) TryLock(ctx context.Context) (*AdvisoryLease, bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	return &AdvisoryLease{conn: conn, key: l.key}, true, nil
}

// Check проверяет через pg_locks, что блокировка всё ещё принадлежит
// этому соединению. Разорванное соединение даёт ошибку запроса.
func (l *AdvisoryLease) Check(ctx context.Context) error {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM pg_locks
			WHERE locktype = 'advisory'
			  AND pid = pg_backend_pid()
			  AND granted
			  AND ((classid::bigint << 32) | objid::bigint) = $1
			  AND objsubid = 1
		)
	`
	var held bool
	if err := l.conn.QueryRow(ctx, query, l.key).Scan(&held); err != nil {
		return fmt.Errorf("check advisory lock: %w", err)
	}
	if !held {
		return ErrLockLost
	}
	return nil
}

// Release снимает блокировку и закрывает соединение, если снять не удалось.
func (l *AdvisoryLease) Release() {
	if _, err := l.conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		// Соединение в неизвестном состоянии: в пул его не возвращаем.
		_ = l.conn.Conn().Close(context.Background())
	}
	l.conn.Release()
}
