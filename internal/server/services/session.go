package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// CookieConfig holds the attributes shared by both session cookies.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// UserLookup loads a user by id, returning (nil, nil) when absent.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionManager issues access/refresh token pairs as cookies and resolves
// the user behind an access token.
type SessionManager struct {
	users   UserLookup
	access  *auth.Codec
	refresh *auth.Codec
	cookies CookieConfig
}

func NewSessionManager(users UserLookup, access, refresh *auth.Codec, cookies CookieConfig) *SessionManager {
	return &SessionManager{users: users, access: access, refresh: refresh, cookies: cookies}
}

// Login returns fresh accessToken and refreshToken cookies for user.
func (m *SessionManager) Login(user *models.User) ([]*http.Cookie, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}

	access, err := m.access.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := m.refresh.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	return []*http.Cookie{
		m.cookie(common.AccessTokenCookieName, access, int(m.access.TTL().Seconds())),
		m.cookie(common.RefreshTokenCookieName, refresh, int(m.refresh.TTL().Seconds())),
	}, nil
}

// Refresh rotates both tokens. Any problem with the refresh token, including
// a subject that no longer exists, yields common.ErrInvalidToken.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error) {
	userID, err := m.refresh.Verify(refreshToken)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrInvalidToken
	}
	return m.Login(user)
}

// Logout returns cookies that make the client drop both tokens.
func (m *SessionManager) Logout() []*http.Cookie {
	expired := func(name string) *http.Cookie {
		c := m.cookie(name, "", -1)
		c.Expires = time.Unix(0, 0).UTC()
		return c
	}
	return []*http.Cookie{
		expired(common.AccessTokenCookieName),
		expired(common.RefreshTokenCookieName),
	}
}

// ResolveCurrentUser returns the user an access token belongs to. When the
// token is missing, invalid, expired or names an unknown user the result is
// (nil, nil) if optional is set and common.ErrorUnauthorized otherwise.
// Lookup failures are returned as they are.
func (m *SessionManager) ResolveCurrentUser(ctx context.Context, accessToken string, optional bool) (*models.User, error) {
	fail := func() (*models.User, error) {
		if optional {
			return nil, nil
		}
		return nil, common.ErrorUnauthorized
	}

	userID, err := m.access.Verify(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			return fail()
		}
		return nil, err
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return fail()
	}
	return user, nil
}

func (m *SessionManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cookies.Path,
		Domain:   m.cookies.Domain,
		MaxAge:   maxAge,
		Secure:   m.cookies.Secure,
		HttpOnly: m.cookies.HTTPOnly,
		SameSite: m.cookies.SameSite,
	}
}
