package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

type HabitRequest struct {
	UserID      string `json:"userId" validate:"required"`
	CategoryID  string `json:"categoryId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Frequency   string `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly"`
	TargetCount *int   `json:"targetCount,omitempty" validate:"omitempty,gte=1"`
}

type HabitUpdateRequest struct {
	ID          string  `json:"id" validate:"required"`
	Name        *string `json:"name,omitempty"`
	Frequency   *string `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly"`
	TargetCount *int    `json:"targetCount,omitempty"`
	Order       *int    `json:"order,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

func ValidateHabitRequest(req *HabitRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return validate.Struct(req)
}

func ValidateHabitUpdateRequest(req *HabitUpdateRequest) error {
	return validate.Struct(req)
}

func CreateHabit(ctx context.Context, habits storage.HabitRepository, req *HabitRequest) (*internal.Habit, error) {
	count, err := habits.CountHabits(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = internal.FrequencyDaily
	}

	habit := &internal.Habit{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Frequency:   frequency,
		TargetCount: req.TargetCount,
		Order:       count,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	if err := habits.CreateHabit(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func UpdateHabit(ctx context.Context, habits storage.HabitRepository, req *HabitUpdateRequest) (*internal.Habit, error) {
	habit, err := habits.GetHabit(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			habit.Name = name
		}
	}
	if req.Frequency != nil {
		habit.Frequency = *req.Frequency
	}
	if req.TargetCount != nil {
		habit.TargetCount = req.TargetCount
	}
	if req.Order != nil {
		habit.Order = *req.Order
	}
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}
	if req.CategoryID != nil {
		habit.CategoryID = *req.CategoryID
	}
	if err := habits.UpdateHabit(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// ArchiveHabit soft-deletes: the habit disappears from listings but its logs
// stay.
func ArchiveHabit(ctx context.Context, habits storage.HabitRepository, id string) error {
	habit, err := habits.GetHabit(ctx, id)
	if err != nil {
		return err
	}
	habit.IsActive = false
	return habits.UpdateHabit(ctx, habit)
}
