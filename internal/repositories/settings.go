package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/workplate/internal/shared"
	"golang.org/x/oauth2"
)

// Well-known settings keys.
const (
	KeyGoogleClientID     = "google_client_id"
	KeyGoogleClientSecret = "google_client_secret"
	KeyOAuthTokens        = "oauth_tokens"
)

// SettingsRepository persists key/value application settings in the settings table.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new [SettingsRepository] with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrSettingNotFound].
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}

// GetOr returns the value stored under key, or fallback when it is unset.
func (r *SettingsRepository) GetOr(key, fallback string) (string, error) {
	value, err := r.Get(key)
	if errors.Is(err, shared.ErrSettingNotFound) {
		return fallback, nil
	}
	return value, err
}

// Set inserts or replaces the value stored under key.
func (r *SettingsRepository) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: setting key must not be empty", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (r *SettingsRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan setting key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SaveToken stores token as JSON under [KeyOAuthTokens].
func (r *SettingsRepository) SaveToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token must not be nil", shared.ErrInvalidArgument)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return r.Set(KeyOAuthTokens, string(data))
}

// Token loads the stored token. It returns [shared.ErrNotAuthenticated] when none has been saved.
func (r *SettingsRepository) Token() (*oauth2.Token, error) {
	raw, err := r.Get(KeyOAuthTokens)
	if errors.Is(err, shared.ErrSettingNotFound) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}
	return &token, nil
}

// ClearToken removes the stored token.
func (r *SettingsRepository) ClearToken() error {
	return r.Delete(KeyOAuthTokens)
}
