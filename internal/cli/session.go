package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/domain"
)

// ErrNotLoggedIn is returned by commands that need an account when no
// token has been saved.
var ErrNotLoggedIn = errors.New("not logged in: run 'elementx user login' first")

func (a *App) tokenPath() string {
	return filepath.Join(a.Config.Store.DataDir, "token")
}

// SaveToken remembers the token issued by register or login.
func (a *App) SaveToken(token string) error {
	if err := os.MkdirAll(a.Config.Store.DataDir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(a.tokenPath(), []byte(token), 0600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken forgets the saved token. Logging out twice is not an error.
func (a *App) ClearToken() error {
	err := os.Remove(a.tokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// CurrentUser resolves the saved token into its account.
func (a *App) CurrentUser(ctx context.Context) (*domain.User, error) {
	data, err := os.ReadFile(a.tokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	user, err := a.Auth.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrInvalidToken) {
			return nil, fmt.Errorf("%w (%v)", ErrNotLoggedIn, err)
		}
		return nil, err
	}
	return user, nil
}
