package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aprilox/HabbitTracker/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	pseudo TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	joker_count INT NOT NULL DEFAULT 0,
	joker_period TEXT NOT NULL DEFAULT 'week',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'quotidien',
	"order" INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	frequency TEXT NOT NULL DEFAULT 'daily',
	target_count INT,
	"order" INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS habit_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	date DATE NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	count INT,
	is_joker BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (habit_id, date)
);
CREATE TABLE IF NOT EXISTS friendships (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	friend_id TEXT NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL
);
`

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		logger.Errorf("failed to init postgres schema: %v", err)
		pool.Close()
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- UserRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, pseudo, password, avatar, joker_count, joker_period, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Pseudo, user.Password, user.Avatar, user.JokerCount, user.JokerPeriod, user.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users WHERE id = $1`, id))
}

func (p *PostgresStorage) GetUserByPseudo(ctx context.Context, pseudo string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users WHERE LOWER(pseudo) = LOWER($1)`, pseudo))
}

func (p *PostgresStorage) scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	err := row.Scan(&u.ID, &u.Pseudo, &u.Password, &u.Avatar, &u.JokerCount, &u.JokerPeriod, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to scan user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET pseudo = $2, password = $3, avatar = $4, joker_count = $5, joker_period = $6 WHERE id = $1`,
		user.ID, user.Pseudo, user.Password, user.Avatar, user.JokerCount, user.JokerPeriod)
	if err != nil {
		p.logger.Errorf("failed to update user: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]internal.User, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users WHERE id <> $1 AND pseudo ILIKE '%' || $2 || '%' ORDER BY pseudo LIMIT $3`,
		excludeID, query, limit)
	if err != nil {
		p.logger.Errorf("failed to search users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := []internal.User{}
	for rows.Next() {
		var u internal.User
		if err := rows.Scan(&u.ID, &u.Pseudo, &u.Password, &u.Avatar, &u.JokerCount, &u.JokerPeriod, &u.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- CategoryRepository ---

func (p *PostgresStorage) CreateCategory(ctx context.Context, cat *internal.Category) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO categories (id, user_id, name, icon, type, "order", created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cat.ID, cat.UserID, cat.Name, cat.Icon, cat.Type, cat.Order, cat.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert category: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetCategory(ctx context.Context, id string) (*internal.Category, error) {
	var c internal.Category
	err := p.pool.QueryRow(ctx, `SELECT id, user_id, name, icon, type, "order", created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Type, &c.Order, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to scan category: %v", err)
		return nil, err
	}
	return &c, nil
}

func (p *PostgresStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, name, icon, type, "order", created_at FROM categories WHERE user_id = $1 ORDER BY "order" ASC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query categories: %v", err)
		return nil, err
	}
	defer rows.Close()

	categories := []internal.Category{}
	for rows.Next() {
		var c internal.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Type, &c.Order, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan category: %v", err)
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *PostgresStorage) CountCategories(ctx context.Context, userID string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (p *PostgresStorage) UpdateCategory(ctx context.Context, cat *internal.Category) error {
	tag, err := p.pool.Exec(ctx, `UPDATE categories SET name = $2, icon = $3, type = $4, "order" = $5 WHERE id = $1`,
		cat.ID, cat.Name, cat.Icon, cat.Type, cat.Order)
	if err != nil {
		p.logger.Errorf("failed to update category: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteCategory(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("failed to delete category: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// --- HabitRepository ---

func (p *PostgresStorage) CreateHabit(ctx context.Context, habit *internal.Habit) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO habits (id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		habit.ID, habit.UserID, habit.CategoryID, habit.Name, habit.Frequency, habit.TargetCount, habit.Order, habit.IsActive, habit.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert habit: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetHabit(ctx context.Context, id string) (*internal.Habit, error) {
	var h internal.Habit
	err := p.pool.QueryRow(ctx, `SELECT id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at FROM habits WHERE id = $1`, id).
		Scan(&h.ID, &h.UserID, &h.CategoryID, &h.Name, &h.Frequency, &h.TargetCount, &h.Order, &h.IsActive, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to scan habit: %v", err)
		return nil, err
	}
	return &h, nil
}

func (p *PostgresStorage) ListHabits(ctx context.Context, userID, categoryID string) ([]internal.Habit, error) {
	query := `SELECT id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at FROM habits WHERE user_id = $1 AND is_active ORDER BY "order" ASC`
	args := []interface{}{userID}
	if categoryID != "" {
		query = `SELECT id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at FROM habits WHERE user_id = $1 AND category_id = $2 AND is_active ORDER BY "order" ASC`
		args = append(args, categoryID)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query habits: %v", err)
		return nil, err
	}
	defer rows.Close()

	habits := []internal.Habit{}
	for rows.Next() {
		var h internal.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.CategoryID, &h.Name, &h.Frequency, &h.TargetCount, &h.Order, &h.IsActive, &h.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan habit: %v", err)
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (p *PostgresStorage) CountHabits(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM habits WHERE category_id = $1`, categoryID).Scan(&count)
	return count, err
}

func (p *PostgresStorage) UpdateHabit(ctx context.Context, habit *internal.Habit) error {
	tag, err := p.pool.Exec(ctx, `UPDATE habits SET category_id = $2, name = $3, frequency = $4, target_count = $5, "order" = $6, is_active = $7 WHERE id = $1`,
		habit.ID, habit.CategoryID, habit.Name, habit.Frequency, habit.TargetCount, habit.Order, habit.IsActive)
	if err != nil {
		p.logger.Errorf("failed to update habit: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// --- LogRepository ---

func (p *PostgresStorage) GetLog(ctx context.Context, habitID string, date time.Time) (*internal.HabitLog, error) {
	var l internal.HabitLog
	err := p.pool.QueryRow(ctx, `SELECT id, user_id, habit_id, date, completed, count, is_joker, created_at FROM habit_logs WHERE habit_id = $1 AND date = $2`, habitID, date).
		Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Completed, &l.Count, &l.IsJoker, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to scan habit log: %v", err)
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStorage) SaveLog(ctx context.Context, log *internal.HabitLog) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO habit_logs (id, user_id, habit_id, date, completed, count, is_joker, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (habit_id, date) DO UPDATE SET completed = EXCLUDED.completed, count = EXCLUDED.count, is_joker = EXCLUDED.is_joker`,
		log.ID, log.UserID, log.HabitID, log.Date, log.Completed, log.Count, log.IsJoker, log.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert habit log: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListLogs(ctx context.Context, userID string, start, end *time.Time) ([]internal.HabitLog, error) {
	query := `SELECT id, user_id, habit_id, date, completed, count, is_joker, created_at FROM habit_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date ASC`
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query habit logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.HabitLog{}
	for rows.Next() {
		var l internal.HabitLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Completed, &l.Count, &l.IsJoker, &l.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan habit log: %v", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) CountJokers(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM habit_logs WHERE user_id = $1 AND is_joker AND date >= $2`, userID, since).Scan(&count)
	return count, err
}

// --- FriendshipRepository ---

func (p *PostgresStorage) CreateFriendship(ctx context.Context, f *internal.Friendship) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO friendships (id, user_id, friend_id, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.UserID, f.FriendID, f.Status, f.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert friendship: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetFriendship(ctx context.Context, id string) (*internal.Friendship, error) {
	return p.scanFriendship(p.pool.QueryRow(ctx, `SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE id = $1`, id))
}

func (p *PostgresStorage) GetFriendshipBetween(ctx context.Context, userID, friendID string) (*internal.Friendship, error) {
	return p.scanFriendship(p.pool.QueryRow(ctx, `SELECT id, user_id, friend_id, status, created_at FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1) LIMIT 1`, userID, friendID))
}

func (p *PostgresStorage) scanFriendship(row pgx.Row) (*internal.Friendship, error) {
	var f internal.Friendship
	err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to scan friendship: %v", err)
		return nil, err
	}
	return &f, nil
}

func (p *PostgresStorage) ListFriendships(ctx context.Context, userID, status string) ([]internal.Friendship, error) {
	query := `SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE (user_id = $1 OR friend_id = $1)`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query friendships: %v", err)
		return nil, err
	}
	defer rows.Close()

	friendships := []internal.Friendship{}
	for rows.Next() {
		var f internal.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan friendship: %v", err)
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (p *PostgresStorage) UpdateFriendship(ctx context.Context, f *internal.Friendship) error {
	tag, err := p.pool.Exec(ctx, `UPDATE friendships SET status = $2 WHERE id = $1`, f.ID, f.Status)
	if err != nil {
		p.logger.Errorf("failed to update friendship: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteFriendship(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("failed to delete friendship: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteFriendshipBetween(ctx context.Context, userID, friendID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM friendships WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`, userID, friendID)
	if err != nil {
		p.logger.Errorf("failed to delete friendship: %v", err)
		return err
	}
	return nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ CategoryRepository = (*PostgresStorage)(nil)
var _ HabitRepository = (*PostgresStorage)(nil)
var _ LogRepository = (*PostgresStorage)(nil)
var _ FriendshipRepository = (*PostgresStorage)(nil)
