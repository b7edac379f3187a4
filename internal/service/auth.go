package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/inventory/internal/events"
	"github.com/Skotchmaster/inventory/internal/hash"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/models"
	"github.com/Skotchmaster/inventory/internal/repo"
	"github.com/Skotchmaster/inventory/internal/tokens"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Events events.Publisher

	JWTSecret        []byte
	TokenTTL         time.Duration
	SessionTTL       time.Duration
	AllowSuperSignup bool
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	Role        string
}

// Authenticate checks the credentials and returns the stored user. The login
// is trimmed the same way Register stores it.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrUnauthenticated
	}

	ok, err := s.Repo.VerifyLogin(ctx, login, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, err := s.Repo.FetchUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates and issues a bearer token carrying the login.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "login", login)

	user, err := s.Authenticate(ctx, login, password)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			l.Error("login_failed", "status", 500, "error", err)
		}
		return nil, err
	}

	exp := time.Now().Add(s.TokenTTL)
	token, err := tokens.NewAccessToken(user.Login, user.Role, s.JWTSecret, exp)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResult{AccessToken: token, AccessExp: exp, Role: user.Role}, nil
}

func (s *AuthService) Register(ctx context.Context, login, password string, super bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "login", login)

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", ErrValidation)
	}
	if super && !s.AllowSuperSignup {
		return nil, fmt.Errorf("%w: super sign-up is disabled", ErrForbidden)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	role := models.RoleNormal
	if super {
		role = models.RoleSuper
	}
	user := models.User{Login: login, PasswordHash: pwHash, Role: role}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrLoginTaken) {
			l.Warn("register_error", "status", 409, "reason", "login already taken")
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.Login, map[string]any{
		"type":  "user_registered",
		"login": user.Login,
		"role":  user.Role,
	})
	l.Info("register_success", "role", user.Role)
	return &user, nil
}

// StartSession stores a new server-side session and returns the cookie value.
func (s *AuthService) StartSession(ctx context.Context, login string) (string, time.Time, error) {
	token := uuid.NewString()
	exp := time.Now().Add(s.SessionTTL)
	if err := s.Repo.CreateSession(ctx, token, login, exp); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *AuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	sess, err := s.Repo.FindSession(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", err
	}
	return sess.Login, nil
}

func (s *AuthService) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Repo.DeleteSession(ctx, token)
}

// PurgeSessions drops expired sessions. It runs periodically from main.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredSessions(ctx, time.Now())
}

func publish(ctx context.Context, p events.Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
