package credentials

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"roster-verifier/core/store"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrNotConfigured is returned when no registry credentials are available for a tournament.
	ErrNotConfigured = errors.New("registry credentials not configured")

	// ErrNoKey is returned when sealing is attempted without a configured key.
	ErrNoKey = errors.New("credentials key not configured")
)

const (
	globalPrefix = "registry"
	emailField   = "email"
	passField    = "password"
)

// Credentials is a decrypted registry login. Call Wipe once the session is open.
type Credentials struct {
	Email    string
	Password []byte
}

// Wipe zeroes the password in place.
func (c *Credentials) Wipe() {
	for i := range c.Password {
		c.Password[i] = 0
	}
	c.Password = nil
}

// Settings is the key/value storage the sealed values live in.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
	PutAll(ctx context.Context, values map[string]string) error
}

// Store seals and opens registry credentials kept in the settings table.
type Store struct {
	settings Settings
	aead     cipher.AEAD
}

// NewStore creates a Store. An empty key yields a store that reports every lookup as not configured.
func NewStore(cfg Config, settings Settings) (*Store, error) {
	s := &Store{settings: settings}
	if cfg.Key == "" {
		return s, nil
	}

	key, err := base64.StdEncoding.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid credentials key: want %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	s.aead = aead
	return s, nil
}

// GenerateKey returns a fresh base64 encoded key suitable for Config.Key.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Set seals and stores credentials. A tournamentID of 0 stores the global fallback.
// Email and password are written together or not at all.
func (s *Store) Set(ctx context.Context, tournamentID uint, email, password string) error {
	if s.aead == nil {
		return ErrNoKey
	}
	values := make(map[string]string, 2)
	for field, value := range map[string]string{emailField: email, passField: password} {
		key := settingKey(tournamentID, field)
		sealed, err := s.seal(key, []byte(value))
		if err != nil {
			return err
		}
		values[key] = sealed
	}
	return s.settings.PutAll(ctx, values)
}

// Decrypt returns the credentials for a tournament, falling back to the global ones.
// The caller owns the result and must Wipe it.
func (s *Store) Decrypt(ctx context.Context, tournamentID uint) (Credentials, error) {
	if s.aead == nil {
		return Credentials{}, ErrNotConfigured
	}

	scopes := []uint{tournamentID}
	if tournamentID != 0 {
		scopes = append(scopes, 0)
	}
	for _, scope := range scopes {
		creds, err := s.load(ctx, scope)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return Credentials{}, err
		}
		return creds, nil
	}
	return Credentials{}, ErrNotConfigured
}

func (s *Store) load(ctx context.Context, scope uint) (Credentials, error) {
	emailKey := settingKey(scope, emailField)
	sealedEmail, err := s.settings.Get(ctx, emailKey)
	if err != nil {
		return Credentials{}, err
	}
	passKey := settingKey(scope, passField)
	sealedPass, err := s.settings.Get(ctx, passKey)
	if err != nil {
		return Credentials{}, err
	}

	email, err := s.open(emailKey, sealedEmail)
	if err != nil {
		return Credentials{}, err
	}
	pass, err := s.open(passKey, sealedPass)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: string(email), Password: pass}, nil
}

// seal binds the ciphertext to its setting key so values cannot be swapped between keys.
func (s *Store) seal(key string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Store) open(key, value string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt credential %s: %w", key, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return nil, fmt.Errorf("corrupt credential %s: too short", key)
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open credential %s: %w", key, err)
	}
	return plain, nil
}

func settingKey(tournamentID uint, field string) string {
	if tournamentID == 0 {
		return globalPrefix + "." + field
	}
	return fmt.Sprintf("%s.%d.%s", globalPrefix, tournamentID, field)
}
