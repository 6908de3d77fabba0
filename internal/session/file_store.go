package session

import (
	"context"
	"os"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// FileStore reads the session token from a file written by the sign-in tool.
// The file is re-read on every call so a refreshed token is picked up without
// restarting the agent.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore constructs a FileStore for the given token file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Token implements TokenProvider.
func (s *FileStore) Token(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "no session token found, please sign in")
		}
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "failed to read session token")
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "session token is empty, please sign in")
	}

	if err := checkExpiry(token, s.now()); err != nil {
		return "", err
	}
	return token, nil
}
