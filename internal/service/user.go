package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

var validate = validator.New()

var (
	ErrPseudoTaken        = errors.New("pseudo already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("wrong password")
)

const (
	defaultJokerCount  = 1
	defaultJokerPeriod = "week"
)

type RegisterRequest struct {
	Pseudo   string `json:"pseudo" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Pseudo   string `json:"pseudo" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SettingsRequest struct {
	UserID      string  `json:"userId" validate:"required"`
	Pseudo      *string `json:"pseudo,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	OldPassword *string `json:"oldPassword,omitempty"`
	NewPassword *string `json:"newPassword,omitempty" validate:"omitempty,min=6"`
	JokerCount  *int    `json:"jokerCount,omitempty" validate:"omitempty,gte=0"`
	JokerPeriod *string `json:"jokerPeriod,omitempty" validate:"omitempty,oneof=week month year"`
}

func ValidateRegisterRequest(req *RegisterRequest) error {
	req.Pseudo = strings.TrimSpace(req.Pseudo)
	return validate.Struct(req)
}

func ValidateLoginRequest(req *LoginRequest) error {
	req.Pseudo = strings.TrimSpace(req.Pseudo)
	return validate.Struct(req)
}

func ValidateSettingsRequest(req *SettingsRequest) error {
	return validate.Struct(req)
}

func Register(ctx context.Context, users storage.UserRepository, req *RegisterRequest) (*internal.User, error) {
	if _, err := users.GetUserByPseudo(ctx, req.Pseudo); err == nil {
		return nil, ErrPseudoTaken
	} else if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		return nil, err
	}

	user := &internal.User{
		ID:          uuid.NewString(),
		Pseudo:      req.Pseudo,
		Password:    string(hash),
		JokerCount:  defaultJokerCount,
		JokerPeriod: defaultJokerPeriod,
		CreatedAt:   time.Now(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials without revealing which of pseudo/password was
// wrong.
func Login(ctx context.Context, users storage.UserRepository, req *LoginRequest) (*internal.User, error) {
	user, err := users.GetUserByPseudo(ctx, req.Pseudo)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func UpdateSettings(ctx context.Context, users storage.UserRepository, req *SettingsRequest) (*internal.User, error) {
	user, err := users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.NewPassword != nil {
		if req.OldPassword == nil {
			return nil, ErrWrongPassword
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(*req.OldPassword)); err != nil {
			return nil, ErrWrongPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), 10)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}

	if req.Pseudo != nil {
		pseudo := strings.TrimSpace(*req.Pseudo)
		if pseudo != "" && pseudo != user.Pseudo {
			if existing, err := users.GetUserByPseudo(ctx, pseudo); err == nil && existing.ID != user.ID {
				return nil, ErrPseudoTaken
			} else if err != nil && !errors.Is(err, internal.ErrNotFound) {
				return nil, err
			}
			user.Pseudo = pseudo
		}
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.JokerCount != nil {
		user.JokerCount = *req.JokerCount
	}
	if req.JokerPeriod != nil {
		user.JokerPeriod = *req.JokerPeriod
	}

	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
