package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Aprilox/HabbitTracker/internal"
)

const (
	usersFile       = "users.json"
	categoriesFile  = "categories.json"
	habitsFile      = "habits.json"
	logsFile        = "habit_logs.json"
	friendshipsFile = "friendships.json"
)

type logDayKey struct {
	habitID string
	day     string
}

// FileStorage keeps every collection in memory and persists each to its own
// JSON file with a debounced background writer, so bursts of writes collapse
// into one disk flush.
type FileStorage struct {
	users       map[string]*internal.User
	pseudoIndex map[string]string // lowercased pseudo -> user id
	categories  map[string]*internal.Category
	habits      map[string]*internal.Habit
	logs        map[string]*internal.HabitLog
	logIndex    map[logDayKey]*internal.HabitLog
	friendships map[string]*internal.Friendship

	mu           sync.RWMutex
	dir          string
	dirty        map[string]bool
	saveChan     chan struct{}
	shutdownChan chan struct{}
	saveDelay    time.Duration
	logger       internal.Logger
}

func NewFileStorage(dir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	s := &FileStorage{
		users:        make(map[string]*internal.User),
		pseudoIndex:  make(map[string]string),
		categories:   make(map[string]*internal.Category),
		habits:       make(map[string]*internal.Habit),
		logs:         make(map[string]*internal.HabitLog),
		logIndex:     make(map[logDayKey]*internal.HabitLog),
		friendships:  make(map[string]*internal.Friendship),
		dir:          dir,
		dirty:        make(map[string]bool),
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) load() error {
	var users []*internal.User
	if err := readJSONFile(filepath.Join(s.dir, usersFile), &users); err != nil {
		return err
	}
	for _, u := range users {
		s.users[u.ID] = u
		s.pseudoIndex[strings.ToLower(u.Pseudo)] = u.ID
	}

	var categories []*internal.Category
	if err := readJSONFile(filepath.Join(s.dir, categoriesFile), &categories); err != nil {
		return err
	}
	for _, c := range categories {
		c.Habits = nil
		s.categories[c.ID] = c
	}

	var habits []*internal.Habit
	if err := readJSONFile(filepath.Join(s.dir, habitsFile), &habits); err != nil {
		return err
	}
	for _, h := range habits {
		s.habits[h.ID] = h
	}

	var logs []*internal.HabitLog
	if err := readJSONFile(filepath.Join(s.dir, logsFile), &logs); err != nil {
		return err
	}
	for _, l := range logs {
		s.logs[l.ID] = l
		s.logIndex[logDayKey{habitID: l.HabitID, day: dayKey(l.Date)}] = l
	}

	var friendships []*internal.Friendship
	if err := readJSONFile(filepath.Join(s.dir, friendshipsFile), &friendships); err != nil {
		return err
	}
	for _, f := range friendships {
		s.friendships[f.ID] = f
	}

	return nil
}

func readJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) markDirty(file string) {
	s.dirty[file] = true
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

func (s *FileStorage) saveWorker() {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			s.saveDirty()
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) saveDirty() {
	s.mu.Lock()
	pending := make([]string, 0, len(s.dirty))
	for file := range s.dirty {
		pending = append(pending, file)
	}
	s.dirty = make(map[string]bool)
	s.mu.Unlock()

	for _, file := range pending {
		if err := s.saveFile(file); err != nil {
			s.logger.Errorf("storage: error saving %s: %v", file, err)
		}
	}
}

func (s *FileStorage) saveFile(file string) error {
	s.mu.RLock()
	var data interface{}
	switch file {
	case usersFile:
		data = collect(s.users)
	case categoriesFile:
		data = collect(s.categories)
	case habitsFile:
		data = collect(s.habits)
	case logsFile:
		data = collect(s.logs)
	case friendshipsFile:
		data = collect(s.friendships)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(filepath.Join(s.dir, file), data)
}

func collect[T any](m map[string]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// Close stops the background writer and flushes everything synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)
	for _, file := range []string{usersFile, categoriesFile, habitsFile, logsFile, friendshipsFile} {
		if err := s.saveFile(file); err != nil {
			return err
		}
	}
	return nil
}

func dayKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

// --- UserRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
	s.pseudoIndex[strings.ToLower(u.Pseudo)] = u.ID
	s.markDirty(usersFile)
	return nil
}

func (s *FileStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *FileStorage) GetUserByPseudo(ctx context.Context, pseudo string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pseudoIndex[strings.ToLower(pseudo)]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (s *FileStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[user.ID]
	if !ok {
		return internal.ErrNotFound
	}
	if !strings.EqualFold(old.Pseudo, user.Pseudo) {
		delete(s.pseudoIndex, strings.ToLower(old.Pseudo))
		s.pseudoIndex[strings.ToLower(user.Pseudo)] = user.ID
	}
	u := *user
	s.users[u.ID] = &u
	s.markDirty(usersFile)
	return nil
}

func (s *FileStorage) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []internal.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Pseudo), needle) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pseudo < out[j].Pseudo })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- CategoryRepository ---

func (s *FileStorage) CreateCategory(ctx context.Context, cat *internal.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cat
	c.Habits = nil
	s.categories[c.ID] = &c
	s.markDirty(categoriesFile)
	return nil
}

func (s *FileStorage) GetCategory(ctx context.Context, id string) (*internal.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *FileStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *FileStorage) CountCategories(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.categories {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *FileStorage) UpdateCategory(ctx context.Context, cat *internal.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[cat.ID]; !ok {
		return internal.ErrNotFound
	}
	c := *cat
	c.Habits = nil
	s.categories[c.ID] = &c
	s.markDirty(categoriesFile)
	return nil
}

func (s *FileStorage) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return internal.ErrNotFound
	}
	delete(s.categories, id)
	s.markDirty(categoriesFile)
	return nil
}

// --- HabitRepository ---

func (s *FileStorage) CreateHabit(ctx context.Context, habit *internal.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := *habit
	s.habits[h.ID] = &h
	s.markDirty(habitsFile)
	return nil
}

func (s *FileStorage) GetHabit(ctx context.Context, id string) (*internal.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *h
	return &out, nil
}

func (s *FileStorage) ListHabits(ctx context.Context, userID, categoryID string) ([]internal.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.Habit{}
	for _, h := range s.habits {
		if h.UserID != userID || !h.IsActive {
			continue
		}
		if categoryID != "" && h.CategoryID != categoryID {
			continue
		}
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *FileStorage) CountHabits(ctx context.Context, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, h := range s.habits {
		if h.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *FileStorage) UpdateHabit(ctx context.Context, habit *internal.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.habits[habit.ID]; !ok {
		return internal.ErrNotFound
	}
	h := *habit
	s.habits[h.ID] = &h
	s.markDirty(habitsFile)
	return nil
}

// --- LogRepository ---

func (s *FileStorage) GetLog(ctx context.Context, habitID string, date time.Time) (*internal.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logIndex[logDayKey{habitID: habitID, day: dayKey(date)}]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (s *FileStorage) SaveLog(ctx context.Context, log *internal.HabitLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logDayKey{habitID: log.HabitID, day: dayKey(log.Date)}
	// One log per (habit, day): an existing entry for the same day is
	// replaced in place, keeping its identity.
	if existing, ok := s.logIndex[key]; ok && existing.ID != log.ID {
		delete(s.logs, existing.ID)
	}
	l := *log
	s.logs[l.ID] = &l
	s.logIndex[key] = &l
	s.markDirty(logsFile)
	return nil
}

func (s *FileStorage) ListLogs(ctx context.Context, userID string, start, end *time.Time) ([]internal.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.HabitLog{}
	for _, l := range s.logs {
		if l.UserID != userID {
			continue
		}
		if start != nil && l.Date.Before(*start) {
			continue
		}
		if end != nil && l.Date.After(*end) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *FileStorage) CountJokers(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, l := range s.logs {
		if l.UserID == userID && l.IsJoker && !l.Date.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- FriendshipRepository ---

func (s *FileStorage) CreateFriendship(ctx context.Context, f *internal.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := *f
	s.friendships[fs.ID] = &fs
	s.markDirty(friendshipsFile)
	return nil
}

func (s *FileStorage) GetFriendship(ctx context.Context, id string) (*internal.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.friendships[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *FileStorage) GetFriendshipBetween(ctx context.Context, userID, friendID string) (*internal.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.friendships {
		if (f.UserID == userID && f.FriendID == friendID) ||
			(f.UserID == friendID && f.FriendID == userID) {
			out := *f
			return &out, nil
		}
	}
	return nil, internal.ErrNotFound
}

func (s *FileStorage) ListFriendships(ctx context.Context, userID, status string) ([]internal.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.Friendship{}
	for _, f := range s.friendships {
		if f.UserID != userID && f.FriendID != userID {
			continue
		}
		if status != "" && f.Status != status {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FileStorage) UpdateFriendship(ctx context.Context, f *internal.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[f.ID]; !ok {
		return internal.ErrNotFound
	}
	fs := *f
	s.friendships[fs.ID] = &fs
	s.markDirty(friendshipsFile)
	return nil
}

func (s *FileStorage) DeleteFriendship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[id]; !ok {
		return internal.ErrNotFound
	}
	delete(s.friendships, id)
	s.markDirty(friendshipsFile)
	return nil
}

func (s *FileStorage) DeleteFriendshipBetween(ctx context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.friendships {
		if (f.UserID == userID && f.FriendID == friendID) ||
			(f.UserID == friendID && f.FriendID == userID) {
			delete(s.friendships, id)
		}
	}
	s.markDirty(friendshipsFile)
	return nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*FileStorage)(nil)
var _ CategoryRepository = (*FileStorage)(nil)
var _ HabitRepository = (*FileStorage)(nil)
var _ LogRepository = (*FileStorage)(nil)
var _ FriendshipRepository = (*FileStorage)(nil)
