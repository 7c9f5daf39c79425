package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/repo"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const msgUsernameExists = "A user with that username already exists."

type AuthService struct {
	users  repo.UserRepository
	tokens *TokenIssuer
}

func NewAuthService(users repo.UserRepository, tokens *TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	fields := model.FieldErrors{}
	if reg.Username == "" {
		fields.Add("username", "This field may not be blank.")
	} else if len(reg.Username) > 150 {
		fields.Add("username", "Ensure this field has no more than 150 characters.")
	}
	if reg.Password == "" {
		fields.Add("password", "This field may not be blank.")
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		fields.Add("email", "Enter a valid email address.")
	}
	if len(fields) > 0 {
		return model.User{}, &ValidationError{Fields: fields}
	}

	if _, err := s.users.GetUserByUsername(ctx, reg.Username); err == nil {
		return model.User{}, &ValidationError{Fields: model.FieldErrors{"username": {msgUsernameExists}}}
	} else if !errors.Is(err, repo.ErrorNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.users.CreateUser(ctx, model.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		PasswordHash: string(hash),
	})
	if errors.Is(err, repo.ErrorConflict) { // гонка двух регистраций с одним именем
		return model.User{}, &ValidationError{Fields: model.FieldErrors{"username": {msgUsernameExists}}}
	}
	return u, err
}

func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if errors.Is(err, repo.ErrorNotFound) {
		return model.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		return model.TokenPair{}, ErrInvalidCredentials
	}
	return s.tokens.Pair(u.ID)
}

func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	return s.tokens.Refresh(refresh)
}

func (s *AuthService) Authenticate(access string) (int64, error) {
	return s.tokens.UserID(access)
}
