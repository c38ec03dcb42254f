package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

type CategoryRequest struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Icon   string `json:"icon,omitempty"`
	Type   string `json:"type,omitempty" validate:"omitempty,oneof=quotidien hebdo addiction"`
}

type CategoryUpdateRequest struct {
	ID    string  `json:"id" validate:"required"`
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Type  *string `json:"type,omitempty" validate:"omitempty,oneof=quotidien hebdo addiction"`
	Order *int    `json:"order,omitempty"`
}

func ValidateCategoryRequest(req *CategoryRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return validate.Struct(req)
}

func ValidateCategoryUpdateRequest(req *CategoryUpdateRequest) error {
	return validate.Struct(req)
}

// CreateCategory appends the category at the end of the user's list.
func CreateCategory(ctx context.Context, categories storage.CategoryRepository, req *CategoryRequest) (*internal.Category, error) {
	count, err := categories.CountCategories(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	icon := req.Icon
	if icon == "" {
		icon = "📋"
	}
	catType := req.Type
	if catType == "" {
		catType = "quotidien"
	}

	cat := &internal.Category{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Name:      req.Name,
		Icon:      icon,
		Type:      catType,
		Order:     count,
		CreatedAt: time.Now(),
		Habits:    []internal.Habit{},
	}
	if err := categories.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func UpdateCategory(ctx context.Context, categories storage.CategoryRepository, req *CategoryUpdateRequest) (*internal.Category, error) {
	cat, err := categories.GetCategory(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			cat.Name = name
		}
	}
	if req.Icon != nil {
		cat.Icon = *req.Icon
	}
	if req.Type != nil {
		cat.Type = *req.Type
	}
	if req.Order != nil {
		cat.Order = *req.Order
	}
	if err := categories.UpdateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// ListCategoriesWithHabits returns the user's categories ordered, each with
// its ordered active habits nested, mirroring the tracker payload shape.
func ListCategoriesWithHabits(ctx context.Context, categories storage.CategoryRepository, habits storage.HabitRepository, userID string) ([]internal.Category, error) {
	cats, err := categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := habits.ListHabits(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]internal.Habit)
	for _, h := range all {
		byCategory[h.CategoryID] = append(byCategory[h.CategoryID], h)
	}
	for i := range cats {
		cats[i].Habits = byCategory[cats[i].ID]
		if cats[i].Habits == nil {
			cats[i].Habits = []internal.Habit{}
		}
	}
	return cats, nil
}
