package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aprilox/HabbitTracker/internal"
)

// SQLiteStorage persists through database/sql with the modernc sqlite driver.
// Dates are stored as YYYY-MM-DD text, timestamps as RFC 3339 text.
type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	pseudo TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	joker_count INTEGER NOT NULL DEFAULT 0,
	joker_period TEXT NOT NULL DEFAULT 'week',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'quotidien',
	"order" INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	category_id TEXT NOT NULL,
	name TEXT NOT NULL,
	frequency TEXT NOT NULL DEFAULT 'daily',
	target_count INTEGER,
	"order" INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS habit_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	habit_id TEXT NOT NULL,
	date TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	count INTEGER,
	is_joker INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	UNIQUE (habit_id, date)
);
CREATE TABLE IF NOT EXISTS friendships (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	friend_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL
);
`

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Errorf("failed to open sqlite database: %v", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		logger.Errorf("failed to init sqlite schema: %v", err)
		db.Close()
		return nil, err
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func sqliteDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseDay(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// --- UserRepository ---

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, pseudo, password, avatar, joker_count, joker_period, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Pseudo, user.Password, user.Avatar, user.JokerCount, user.JokerPeriod, sqliteTime(user.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert user: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLiteStorage) GetUserByPseudo(ctx context.Context, pseudo string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users WHERE pseudo = ? COLLATE NOCASE`, pseudo))
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*internal.User, error) {
	var u internal.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Pseudo, &u.Password, &u.Avatar, &u.JokerCount, &u.JokerPeriod, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		s.logger.Errorf("failed to scan user: %v", err)
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *SQLiteStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET pseudo = ?, password = ?, avatar = ?, joker_count = ?, joker_period = ? WHERE id = ?`,
		user.Pseudo, user.Password, user.Avatar, user.JokerCount, user.JokerPeriod, user.ID)
	if err != nil {
		s.logger.Errorf("failed to update user: %v", err)
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]internal.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, pseudo, password, avatar, joker_count, joker_period, created_at FROM users
		WHERE id <> ? AND pseudo LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY pseudo LIMIT ?`, excludeID, query, limit)
	if err != nil {
		s.logger.Errorf("failed to search users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := []internal.User{}
	for rows.Next() {
		var u internal.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Pseudo, &u.Password, &u.Avatar, &u.JokerCount, &u.JokerPeriod, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- CategoryRepository ---

func (s *SQLiteStorage) CreateCategory(ctx context.Context, cat *internal.Category) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, user_id, name, icon, type, "order", created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.UserID, cat.Name, cat.Icon, cat.Type, cat.Order, sqliteTime(cat.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert category: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*internal.Category, error) {
	var c internal.Category
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, name, icon, type, "order", created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Type, &c.Order, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *SQLiteStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, name, icon, type, "order", created_at FROM categories WHERE user_id = ? ORDER BY "order" ASC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query categories: %v", err)
		return nil, err
	}
	defer rows.Close()

	categories := []internal.Category{}
	for rows.Next() {
		var c internal.Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Type, &c.Order, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStorage) CountCategories(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) UpdateCategory(ctx context.Context, cat *internal.Category) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ?, icon = ?, type = ?, "order" = ? WHERE id = ?`,
		cat.Name, cat.Icon, cat.Type, cat.Order, cat.ID)
	if err != nil {
		s.logger.Errorf("failed to update category: %v", err)
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		s.logger.Errorf("failed to delete category: %v", err)
		return err
	}
	return requireRows(res)
}

// --- HabitRepository ---

func (s *SQLiteStorage) CreateHabit(ctx context.Context, habit *internal.Habit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO habits (id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.CategoryID, habit.Name, habit.Frequency, nullableInt(habit.TargetCount), habit.Order, habit.IsActive, sqliteTime(habit.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert habit: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetHabit(ctx context.Context, id string) (*internal.Habit, error) {
	var h internal.Habit
	var target sql.NullInt64
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at FROM habits WHERE id = ?`, id).
		Scan(&h.ID, &h.UserID, &h.CategoryID, &h.Name, &h.Frequency, &target, &h.Order, &h.IsActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		return nil, err
	}
	h.TargetCount = intPtr(target)
	h.CreatedAt = parseTime(createdAt)
	return &h, nil
}

func (s *SQLiteStorage) ListHabits(ctx context.Context, userID, categoryID string) ([]internal.Habit, error) {
	query := `SELECT id, user_id, category_id, name, frequency, target_count, "order", is_active, created_at FROM habits WHERE user_id = ? AND is_active = 1`
	args := []interface{}{userID}
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY "order" ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Errorf("failed to query habits: %v", err)
		return nil, err
	}
	defer rows.Close()

	habits := []internal.Habit{}
	for rows.Next() {
		var h internal.Habit
		var target sql.NullInt64
		var createdAt string
		if err := rows.Scan(&h.ID, &h.UserID, &h.CategoryID, &h.Name, &h.Frequency, &target, &h.Order, &h.IsActive, &createdAt); err != nil {
			return nil, err
		}
		h.TargetCount = intPtr(target)
		h.CreatedAt = parseTime(createdAt)
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *SQLiteStorage) CountHabits(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM habits WHERE category_id = ?`, categoryID).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) UpdateHabit(ctx context.Context, habit *internal.Habit) error {
	res, err := s.db.ExecContext(ctx, `UPDATE habits SET category_id = ?, name = ?, frequency = ?, target_count = ?, "order" = ?, is_active = ? WHERE id = ?`,
		habit.CategoryID, habit.Name, habit.Frequency, nullableInt(habit.TargetCount), habit.Order, habit.IsActive, habit.ID)
	if err != nil {
		s.logger.Errorf("failed to update habit: %v", err)
		return err
	}
	return requireRows(res)
}

// --- LogRepository ---

func (s *SQLiteStorage) GetLog(ctx context.Context, habitID string, date time.Time) (*internal.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, habit_id, date, completed, count, is_joker, created_at FROM habit_logs WHERE habit_id = ? AND date = ?`,
		habitID, sqliteDay(date))
	return s.scanLogRow(row)
}

func (s *SQLiteStorage) scanLogRow(row *sql.Row) (*internal.HabitLog, error) {
	var l internal.HabitLog
	var day, createdAt string
	var count sql.NullInt64
	err := row.Scan(&l.ID, &l.UserID, &l.HabitID, &day, &l.Completed, &count, &l.IsJoker, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		s.logger.Errorf("failed to scan habit log: %v", err)
		return nil, err
	}
	l.Date = parseDay(day)
	l.Count = intPtr(count)
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

func (s *SQLiteStorage) SaveLog(ctx context.Context, log *internal.HabitLog) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO habit_logs (id, user_id, habit_id, date, completed, count, is_joker, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, date) DO UPDATE SET completed = excluded.completed, count = excluded.count, is_joker = excluded.is_joker`,
		log.ID, log.UserID, log.HabitID, sqliteDay(log.Date), log.Completed, nullableInt(log.Count), log.IsJoker, sqliteTime(log.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to upsert habit log: %v", err)
	}
	return err
}

func (s *SQLiteStorage) ListLogs(ctx context.Context, userID string, start, end *time.Time) ([]internal.HabitLog, error) {
	query := `SELECT id, user_id, habit_id, date, completed, count, is_joker, created_at FROM habit_logs WHERE user_id = ?`
	args := []interface{}{userID}
	if start != nil {
		query += ` AND date >= ?`
		args = append(args, sqliteDay(*start))
	}
	if end != nil {
		query += ` AND date <= ?`
		args = append(args, sqliteDay(*end))
	}
	query += ` ORDER BY date ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Errorf("failed to query habit logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.HabitLog{}
	for rows.Next() {
		var l internal.HabitLog
		var day, createdAt string
		var count sql.NullInt64
		if err := rows.Scan(&l.ID, &l.UserID, &l.HabitID, &day, &l.Completed, &count, &l.IsJoker, &createdAt); err != nil {
			return nil, err
		}
		l.Date = parseDay(day)
		l.Count = intPtr(count)
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStorage) CountJokers(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM habit_logs WHERE user_id = ? AND is_joker = 1 AND date >= ?`, userID, sqliteDay(since)).Scan(&count)
	return count, err
}

// --- FriendshipRepository ---

func (s *SQLiteStorage) CreateFriendship(ctx context.Context, f *internal.Friendship) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO friendships (id, user_id, friend_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.FriendID, f.Status, sqliteTime(f.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert friendship: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetFriendship(ctx context.Context, id string) (*internal.Friendship, error) {
	return s.scanFriendship(s.db.QueryRowContext(ctx, `SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE id = ?`, id))
}

func (s *SQLiteStorage) GetFriendshipBetween(ctx context.Context, userID, friendID string) (*internal.Friendship, error) {
	return s.scanFriendship(s.db.QueryRowContext(ctx, `SELECT id, user_id, friend_id, status, created_at FROM friendships
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?) LIMIT 1`, userID, friendID, friendID, userID))
}

func (s *SQLiteStorage) scanFriendship(row *sql.Row) (*internal.Friendship, error) {
	var f internal.Friendship
	var createdAt string
	err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		return nil, err
	}
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

func (s *SQLiteStorage) ListFriendships(ctx context.Context, userID, status string) ([]internal.Friendship, error) {
	query := `SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE (user_id = ? OR friend_id = ?)`
	args := []interface{}{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Errorf("failed to query friendships: %v", err)
		return nil, err
	}
	defer rows.Close()

	friendships := []internal.Friendship{}
	for rows.Next() {
		var f internal.Friendship
		var createdAt string
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt = parseTime(createdAt)
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (s *SQLiteStorage) UpdateFriendship(ctx context.Context, f *internal.Friendship) error {
	res, err := s.db.ExecContext(ctx, `UPDATE friendships SET status = ? WHERE id = ?`, f.Status, f.ID)
	if err != nil {
		s.logger.Errorf("failed to update friendship: %v", err)
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteFriendship(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		s.logger.Errorf("failed to delete friendship: %v", err)
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteFriendshipBetween(ctx context.Context, userID, friendID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID)
	if err != nil {
		s.logger.Errorf("failed to delete friendship: %v", err)
	}
	return err
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*SQLiteStorage)(nil)
var _ CategoryRepository = (*SQLiteStorage)(nil)
var _ HabitRepository = (*SQLiteStorage)(nil)
var _ LogRepository = (*SQLiteStorage)(nil)
var _ FriendshipRepository = (*SQLiteStorage)(nil)
