package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	repo "github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/pkg/events"
	"github.com/oksasatya/go-user-directory/pkg/validation"
)

// ErrInvalidInput wraps validator.ValidationErrors; validation.ToDetails can render it.
var ErrInvalidInput = errors.New("invalid input")

// EventPublisher is satisfied by helpers.RabbitPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, msgType string, body any) error
}

type Service struct {
	Repo     repo.UserRepository
	Events   EventPublisher
	Logger   *logrus.Logger
	validate *validator.Validate
}

// NewService builds the user service; events may be nil to disable publishing.
func NewService(repo repo.UserRepository, events EventPublisher, logger *logrus.Logger) *Service {
	return &Service{
		Repo:     repo,
		Events:   events,
		Logger:   logger,
		validate: validation.New(),
	}
}

// Limits mirror the postgres columns: VARCHAR(255) email/name, INTEGER followers.
type CreateUserInput struct {
	Email     string  `json:"email" validate:"required,useremail,max=255"`
	Name      *string `json:"name" validate:"omitnil,max=255"`
	AvatarURL *string `json:"avatar_url"`
}

type UpdateUserInput struct {
	Email     *string `json:"email" validate:"omitnil,useremail,max=255"`
	Name      *string `json:"name" validate:"omitnil,max=255"`
	AvatarURL *string `json:"avatar_url"`
	IsActive  *bool   `json:"isActive"`
	Followers *int    `json:"follwers" validate:"omitnil,min=0,max=2147483647"`
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// CreateUser validates the input and inserts a record with store defaults.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	u, err := s.Repo.Insert(ctx, entity.NewUser{Email: in.Email, Name: in.Name, AvatarURL: in.AvatarURL})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserCreated, u.ID, u.Email)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.FindAll(ctx)
}

// UpdateUser applies only the supplied fields.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	patch := entity.UserPatch{
		Email:     in.Email,
		Name:      in.Name,
		AvatarURL: in.AvatarURL,
		IsActive:  in.IsActive,
		Followers: in.Followers,
	}
	u, err := s.Repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		s.publish(ctx, events.UserUpdated, u.ID, u.Email)
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.UserDeleted, id, "")
	return nil
}

// publish is best effort: a broker failure is logged and never fails the request.
func (s *Service) publish(ctx context.Context, eventType string, userID int64, email string) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, eventType, events.NewUserEvent(eventType, userID, email)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"event": eventType, "user_id": userID}).Warn("publish user event failed")
	}
}
