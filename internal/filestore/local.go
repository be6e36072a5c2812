package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/projdesk/internal/pkg/jwt"
)

var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrSignatureExpired = errors.New("signature expired")
)

const defaultPublicTTL = 7 * 24 * time.Hour

type localConfig struct {
	Dir            string `json:"dir"`
	PublicURL      string `json:"public_url"`
	SignSecret     string `json:"sign_secret"`
	PublicTTLHours int    `json:"public_ttl_hours"`
}

// LocalStore keeps blobs on disk and serves them through signed links of this process.
type LocalStore struct {
	dir       string
	publicURL string
	secret    []byte
	publicTTL time.Duration
	now       func() time.Time
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	store, err := NewLocalStore(cfg.Dir, cfg.PublicURL, cfg.SignSecret)
	if err != nil {
		return nil, err
	}
	if cfg.PublicTTLHours > 0 {
		store.publicTTL = time.Duration(cfg.PublicTTLHours) * time.Hour
	}
	return store, nil
}

func NewLocalStore(dir, publicURL, signSecret string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if signSecret == "" {
		return nil, fmt.Errorf("local store sign_secret is required")
	}
	return &LocalStore{
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		secret:    []byte(signSecret),
		publicTTL: defaultPublicTTL,
		now:       time.Now,
	}, nil
}

func (s *LocalStore) Type() string {
	return "local"
}

func (s *LocalStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_ = contentType
	if err := ValidateKey(key); err != nil {
		return err
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrObjectExists
		}
		return err
	}
	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return ctx.Err()
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]Object, error) {
	_ = ctx
	dirKey := strings.TrimSuffix(prefix, "/")
	if err := ValidateKey(dirKey); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.path(dirKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Object{}, nil
		}
		return nil, err
	}
	items := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		items = append(items, Object{Key: dirKey + "/" + entry.Name(), Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *LocalStore) Remove(ctx context.Context, keys []string) error {
	_ = ctx
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return err
		}
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *LocalStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.path(key)); err != nil {
		return "", err
	}
	return s.signedLink(key, ttl)
}

// PublicURL is a signed link valid for publicTTL, since blobs are only served with a token.
func (s *LocalStore) PublicURL(key string) string {
	link, err := s.signedLink(key, s.publicTTL)
	if err != nil {
		return ""
	}
	return link
}

func (s *LocalStore) signedLink(key string, ttl time.Duration) (string, error) {
	token, err := jwt.GenerateBlobToken(key, s.secret, s.now().Add(ttl))
	if err != nil {
		return "", err
	}
	return s.publicURL + "/api/blobs/" + escapeKey(key) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks a token produced by SignedURL or PublicURL against key.
func (s *LocalStore) Verify(key, token string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if token == "" {
		return ErrSignatureInvalid
	}
	claims, err := jwt.ParseBlobToken(token, s.secret, s.now)
	if err != nil {
		if jwt.IsExpired(err) {
			return ErrSignatureExpired
		}
		return ErrSignatureInvalid
	}
	if claims.Key != key {
		return ErrSignatureInvalid
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return os.Open(s.path(key))
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
