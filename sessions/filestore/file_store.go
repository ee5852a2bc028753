// Package filestore persists the session as a JSON file, optionally sealed at rest.
package filestore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
	saltSize = 16

	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

var _ sessions.Store = (*FileStore)(nil)

// fileRecord is the on-disk layout. Exactly one of Session or Sealed is set.
type fileRecord struct {
	Session *sessions.Session `json:"session,omitempty"`
	Sealed  *sealedRecord     `json:"sealed,omitempty"`
}

type sealedRecord struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

type FileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

type Option func(*FileStore)

// WithPassphrase seals the session with XChaCha20-Poly1305 under a key derived by argon2id
func WithPassphrase(passphrase string) Option {
	return func(fs *FileStore) {
		if passphrase != "" {
			fs.passphrase = []byte(passphrase)
		}
	}
}

func New(path string, options ...Option) *FileStore {
	fs := &FileStore{path: path}
	for _, opt := range options {
		opt(fs)
	}
	return fs
}

func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Load() (sessions.Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return sessions.Session{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[FileStore Load] read %s: %w", fs.path, err)
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return sessions.Session{}, fmt.Errorf("[FileStore Load] decode %s: %w: %w", fs.path, errors.ErrSessionCorrupt, err)
	}

	switch {
	case record.Sealed != nil:
		return fs.open(record.Sealed)
	case record.Session != nil:
		return *record.Session, nil
	default:
		return sessions.Session{}, errors.ErrSessionNotFound
	}
}

func (fs *FileStore) Save(session sessions.Session) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	record := fileRecord{Session: &session}
	if len(fs.passphrase) > 0 {
		sealed, err := fs.seal(session)
		if err != nil {
			return err
		}
		record = fileRecord{Sealed: sealed}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore Save] encode: %w", err)
	}
	return writeFileAtomic(fs.path, data)
}

func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[FileStore Clear] remove %s: %w", fs.path, err)
	}
	return nil
}

func (fs *FileStore) seal(session sessions.Session) (*sealedRecord, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("[FileStore seal] encode: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("[FileStore seal] salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(fs.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("[FileStore seal] cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("[FileStore seal] nonce: %w", err)
	}

	return &sealedRecord{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func (fs *FileStore) open(sealed *sealedRecord) (sessions.Session, error) {
	if len(fs.passphrase) == 0 {
		return sessions.Session{}, errors.ErrSessionSealed
	}
	aead, err := chacha20poly1305.NewX(fs.deriveKey(sealed.Salt))
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[FileStore open] cipher: %w", err)
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return sessions.Session{}, fmt.Errorf("[FileStore open] bad nonce length %d: %w", len(sealed.Nonce), errors.ErrSessionCorrupt)
	}
	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[FileStore open] wrong passphrase or corrupt file: %w", err)
	}

	var session sessions.Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return sessions.Session{}, fmt.Errorf("[FileStore open] decode: %w: %w", errors.ErrSessionCorrupt, err)
	}
	return session, nil
}

func (fs *FileStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(fs.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// writeFileAtomic writes to a temp file in the same directory and renames it over path
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("[FileStore Save] mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileStore Save] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore Save] write: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore Save] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("[FileStore Save] rename: %w", err)
	}
	return nil
}
