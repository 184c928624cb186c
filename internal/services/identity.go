// Token-file implementation of [IdentityProvider].
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"golang.org/x/oauth2"
)

// sessionFile is the on-disk shape of a persisted session.
type sessionFile struct {
	Token  oauth2.Token `json:"token"`
	UserID string       `json:"user_id"`
	Email  string       `json:"email"`
}

// TokenIdentityProvider implements [IdentityProvider] with an oauth2 token
// persisted to a local file. Expired tokens are refreshed through the
// configured token endpoint; sign-out revokes remotely but always clears the
// local file and in-memory session.
type TokenIdentityProvider struct {
	mu         sync.Mutex
	conf       *oauth2.Config
	revokeURL  string
	path       string
	httpClient *http.Client
	logger     *log.Logger

	session   *models.Session
	callbacks map[int]func(*models.Session)
	nextID    int
}

// NewTokenIdentityProvider creates a provider from credential configuration.
func NewTokenIdentityProvider(creds shared.CredentialsConfig, client *http.Client, logger *log.Logger) *TokenIdentityProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: creds.TokenURL,
		},
	}

	return &TokenIdentityProvider{
		conf:       conf,
		revokeURL:  creds.RevokeURL,
		path:       expandPath(creds.TokenPath),
		httpClient: client,
		logger:     logger,
		callbacks:  make(map[int]func(*models.Session)),
	}
}

// Load resolves any persisted session, refreshing the token when expired.
// A missing token file is not an error; it simply means signed out.
func (p *TokenIdentityProvider) Load(ctx context.Context) error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	token := &file.Token
	if !token.Valid() && token.RefreshToken != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
		token, err = p.conf.TokenSource(ctx, &file.Token).Token()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
		}
		file.Token = *token
		if err := p.persist(file); err != nil {
			p.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}

	if !token.Valid() {
		return shared.ErrSessionExpired
	}

	session := &models.Session{
		UserID:      file.UserID,
		Email:       file.Email,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}

	p.setSession(session)
	return nil
}

// SignIn exchanges email/password credentials for a session via the token
// endpoint's password grant and persists the resulting token.
func (p *TokenIdentityProvider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.conf.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	file := sessionFile{Token: *token, Email: email, UserID: extractUserID(token)}
	if err := p.persist(file); err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:      file.UserID,
		Email:       file.Email,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}

	p.setSession(session)
	return session, nil
}

// Current returns the active session, or nil when signed out.
func (p *TokenIdentityProvider) Current(ctx context.Context) (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && p.session.Expired() {
		return nil, shared.ErrSessionExpired
	}
	return p.session, nil
}

// OnChange registers a session transition callback.
func (p *TokenIdentityProvider) OnChange(fn func(*models.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.callbacks[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.callbacks, id)
	}
}

// SignOut revokes the session remotely and clears local credentials. The
// token file and in-memory session are cleared even when the revoke fails.
func (p *TokenIdentityProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := ""
	if p.session != nil {
		token = p.session.AccessToken
	}
	p.mu.Unlock()

	var revokeErr error
	if p.revokeURL != "" && token != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, nil)
		if err != nil {
			revokeErr = err
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := p.httpClient.Do(req)
			if err != nil {
				revokeErr = err
			} else {
				resp.Body.Close()
				if resp.StatusCode >= 400 {
					revokeErr = fmt.Errorf("revoke endpoint returned status %d", resp.StatusCode)
				}
			}
		}
	}

	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove session file", "path", p.path, "error", err)
	}

	p.setSession(nil)

	if revokeErr != nil {
		return fmt.Errorf("%w: %v", shared.ErrSignOutFailed, revokeErr)
	}
	return nil
}

func (p *TokenIdentityProvider) persist(file sessionFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (p *TokenIdentityProvider) setSession(session *models.Session) {
	p.mu.Lock()
	p.session = session
	callbacks := make([]func(*models.Session), 0, len(p.callbacks))
	for _, fn := range p.callbacks {
		callbacks = append(callbacks, fn)
	}
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

// extractUserID pulls the user identifier from token endpoint extras.
// GoTrue-style endpoints return a "user" object alongside the token.
func extractUserID(token *oauth2.Token) string {
	if user, ok := token.Extra("user").(map[string]any); ok {
		if id, ok := user["id"].(string); ok {
			return id
		}
	}
	if id, ok := token.Extra("user_id").(string); ok {
		return id
	}
	return ""
}

// expandPath resolves a leading ~ against the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
