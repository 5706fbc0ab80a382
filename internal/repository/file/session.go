package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// CurrentSession is the session ID the florist client uses. The file store
// holds a single session.
const CurrentSession = "current"

// SessionRepository stores the signed-in session in session.json.
type SessionRepository struct {
	mu   sync.Mutex
	path string
}

func NewSessionRepository(dataDir string) *SessionRepository {
	return &SessionRepository{path: filepath.Join(dataDir, SessionFile)}
}

// Get returns the stored session when id matches it or is CurrentSession.
func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s domain.Session
	if err := readJSON(r.path, "session", &s); err != nil {
		return nil, err
	}
	if id != CurrentSession && id != s.ID {
		return nil, apperrors.NotFound("session", id)
	}
	return &s, nil
}

func (r *SessionRepository) Save(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSON(r.path, s)
}

func (r *SessionRepository) Delete(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeFile(r.path)
}

// Path is the location of session.json.
func (r *SessionRepository) Path() string { return r.path }
