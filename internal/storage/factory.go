package storage

import "github.com/Aprilox/HabbitTracker/internal"

// Repositories bundles every repository a backend provides.
type Repositories struct {
	Users       UserRepository
	Categories  CategoryRepository
	Habits      HabitRepository
	Logs        LogRepository
	Friendships FriendshipRepository
	closer      interface{ Close() error }
}

func (r *Repositories) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func NewFileRepositories(dataDir string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Users: s, Categories: s, Habits: s, Logs: s, Friendships: s, closer: s}, nil
}

func NewSQLiteRepositories(path string, logger internal.Logger) (*Repositories, error) {
	s, err := NewSQLiteStorage(path, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Users: s, Categories: s, Habits: s, Logs: s, Friendships: s, closer: s}, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Users: s, Categories: s, Habits: s, Logs: s, Friendships: s, closer: s}, nil
}
