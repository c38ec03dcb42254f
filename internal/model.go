package internal

import "time"

type User struct {
	ID          string    `json:"id"`
	Pseudo      string    `json:"pseudo"`
	Password    string    `json:"-"`
	Avatar      string    `json:"avatar,omitempty"`
	JokerCount  int       `json:"jokerCount"`
	JokerPeriod string    `json:"jokerPeriod"` // week, month, year
	CreatedAt   time.Time `json:"createdAt"`
}

// PublicUser is the profile shape exposed to other users (search, friends).
type PublicUser struct {
	ID     string `json:"id"`
	Pseudo string `json:"pseudo"`
	Avatar string `json:"avatar,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Pseudo: u.Pseudo, Avatar: u.Avatar}
}

type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Type      string    `json:"type"` // quotidien, hebdo, addiction
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	Habits    []Habit   `json:"habits"`
}

type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CategoryID  string    `json:"categoryId"`
	Name        string    `json:"name"`
	Frequency   string    `json:"frequency"` // daily, weekly
	TargetCount *int      `json:"targetCount,omitempty"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HabitLog records one habit on one calendar day. Date is normalized to
// midnight UTC; at most one log exists per (HabitID, Date).
type HabitLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	HabitID   string    `json:"habitId"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Count     *int      `json:"count,omitempty"`
	IsJoker   bool      `json:"isJoker"`
	CreatedAt time.Time `json:"createdAt"`
}

type Friendship struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`   // requester
	FriendID  string    `json:"friendId"` // recipient
	Status    string    `json:"status"`   // pending, accepted
	CreatedAt time.Time `json:"createdAt"`
}

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)
