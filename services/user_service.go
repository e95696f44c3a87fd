package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"docshelf/logger"
	"docshelf/models"
	"docshelf/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (in CreateUserInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat, validation.Length(0, 255)),
		validation.Field(&in.Role, enumRule(models.ParseUserRole)),
		validation.Field(&in.FirstName, validation.Length(0, 100)),
		validation.Field(&in.LastName, validation.Length(0, 100)),
	)
}

type UserService interface {
	// EnsureDefaultUser creates the stand-in user that unauthenticated requests act as.
	EnsureDefaultUser(ctx context.Context, userID uint) (models.User, error)
	GetUser(ctx context.Context, userID uint) (models.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (models.User, error)
}

type userService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) EnsureDefaultUser(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	user = models.User{
		ID:        userID,
		Username:  "admin",
		Email:     "admin@localhost",
		Role:      models.RoleAdmin,
		FirstName: "Default",
		LastName:  "User",
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return models.User{}, newAppError(http.StatusInternalServerError, "failed to create default user", err)
	}
	logger.Infof("created default user %d", user.ID)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return models.User{}, lookupError(err, "user not found", "failed to query user")
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return models.User{}, validationError(err)
	}

	count, err := s.users.CountByUsernameOrEmail(ctx, nil, in.Username, in.Email)
	if err != nil {
		return models.User{}, newAppError(http.StatusInternalServerError, "failed to check user", err)
	}
	if count > 0 {
		return models.User{}, newAppError(http.StatusConflict, "username or email already in use", nil)
	}

	role := models.RoleUser
	if in.Role != "" {
		role, _ = models.ParseUserRole(in.Role)
	}
	user := models.User{
		Username:  in.Username,
		Email:     in.Email,
		Role:      role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return models.User{}, newAppError(http.StatusInternalServerError, "failed to create user", err)
	}
	return user, nil
}
