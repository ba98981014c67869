package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore persists the credential pair as a JSON file, typically under
// ~/.admctl/credentials.json. The file is written with 0600 permissions and
// its parent directory is created with 0700.
//
// Reads after a Set within the same process are served from the in-memory
// copy, so a slow filesystem can never make a freshly rotated token invisible
// to the request pipeline.
type FileStore struct {
	path   string
	logger zerolog.Logger

	mu     sync.RWMutex
	cached Pair
	loaded bool
}

var _ Store = (*FileStore)(nil)

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used to report storage I/O failures.
func WithLogger(logger zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.logger = logger
	}
}

// NewFileStore creates a FileStore backed by the given file path.
func NewFileStore(path string, options ...FileStoreOption) *FileStore {
	fs := &FileStore{
		path:   path,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(fs)
	}
	return fs
}

// Access returns the stored access token, or "" when none is stored.
func (fs *FileStore) Access() string {
	return fs.load().AccessToken
}

// Refresh returns the stored refresh token, or "" when none is stored.
func (fs *FileStore) Refresh() string {
	return fs.load().RefreshToken
}

// Set replaces the stored pair and writes it through to disk.
func (fs *FileStore) Set(pair Pair) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.cached = pair
	fs.loaded = true

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("credentials directory not writable")
		return
	}
	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		fs.logger.Warn().Err(err).Msg("failed to marshal credentials")
		return
	}
	if err := os.WriteFile(fs.path, data, 0o600); err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("failed to write credentials file")
	}
}

// Clear removes the stored pair and deletes the backing file.
func (fs *FileStore) Clear() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.cached = Pair{}
	fs.loaded = true

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("failed to remove credentials file")
	}
}

// Exists reports whether a pair is currently stored.
func (fs *FileStore) Exists() bool {
	return !fs.load().IsZero()
}

// load returns the current pair, reading the backing file on first use.
func (fs *FileStore) load() Pair {
	fs.mu.RLock()
	if fs.loaded {
		defer fs.mu.RUnlock()
		return fs.cached
	}
	fs.mu.RUnlock()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.loaded {
		return fs.cached
	}

	fs.loaded = true
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fs.logger.Warn().Err(err).Str("path", fs.path).Msg("failed to read credentials file")
		}
		return fs.cached
	}
	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("corrupt credentials file ignored")
		return fs.cached
	}
	fs.cached = pair
	return fs.cached
}
