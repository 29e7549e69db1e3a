package services

import (
	"context"
	"strings"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
)

type UserInput struct {
	Username    string
	Email       string
	Signature   string
	IsStaff     bool
	IsSuperuser bool
}

type UserService struct {
	store  database.Store
	tokens *Tokens
	media  *MediaService
	logger zerolog.Logger
}

func NewUserService(store database.Store, tokens *Tokens, media *MediaService, logger zerolog.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		media:  media,
		logger: logger.With().Str("service", "users").Logger(),
	}
}

// Authenticate resolves a bearer token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewInvalidTokenError()
		}
		return nil, errs.NewDatabaseError("find", "user", err)
	}
	return user, nil
}

// TokenFor issues a token for an existing username.
func (s *UserService) TokenFor(ctx context.Context, username string) (string, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return "", errs.NewDatabaseError("find", "user", err)
	}
	return s.tokens.Issue(user)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "users", err)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*models.User, error) {
	user := &models.User{
		Username:    strings.TrimSpace(input.Username),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Signature:   input.Signature,
		IsStaff:     input.IsStaff,
		IsSuperuser: input.IsSuperuser,
	}
	if user.Username == "" {
		return nil, errs.NewMissingRequiredFieldError("username")
	}
	if user.Email == "" {
		return nil, errs.NewMissingRequiredFieldError("email")
	}

	if err := s.store.Users().Add(ctx, user); err != nil {
		return nil, errs.NewDatabaseError("create", "user", err)
	}
	s.logger.Info().Uint("userID", user.ID).Str("username", user.Username).Msg("user created")
	return user, nil
}

// Delete removes a user; their posts and comments stay without an author.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "user", err)
	}
	return nil
}

// SetAvatar stores an image and points the user's avatar at it.
func (s *UserService) SetAvatar(ctx context.Context, user *models.User, upload Upload) (*models.User, error) {
	file, err := s.media.SaveImage(ctx, upload)
	if err != nil {
		return nil, err
	}
	user.Avatar = file.URL
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, errs.NewDatabaseError("update", "user", err)
	}
	return user, nil
}
