// Package jsonfile keeps the four collections as JSON documents on disk.
// It is meant for single-process deployments; one mutex guards the whole
// dataset.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type collection string

const (
	keysFile       collection = "keys"
	candidatesFile collection = "candidates"
	sessionsFile   collection = "sessions"
	votesFile      collection = "votes"
)

var collections = []collection{keysFile, candidatesFile, sessionsFile, votesFile}

// voteRecord is the on-disk ledger entry. domain.Vote hides the key hash
// from JSON so it never leaks through the API.
type voteRecord struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidateId"`
	KeyHash     string    `json:"keyHash"`
	Timestamp   time.Time `json:"timestamp"`
}

type dataset struct {
	keys       []domain.VotingKey
	candidates []domain.Candidate
	sessions   []domain.VotingSession
	votes      []voteRecord
}

func (d *dataset) clone() *dataset {
	return &dataset{
		keys:       append([]domain.VotingKey(nil), d.keys...),
		candidates: append([]domain.Candidate(nil), d.candidates...),
		sessions:   append([]domain.VotingSession(nil), d.sessions...),
		votes:      append([]voteRecord(nil), d.votes...),
	}
}

// txn is a working copy of the dataset. Only collections marked dirty are
// written back on commit.
type txn struct {
	data  *dataset
	dirty map[collection]bool
}

func (t *txn) touch(c collection) {
	t.dirty[c] = true
}

type state struct {
	mu   sync.Mutex
	dir  string
	data *dataset
}

type Store struct {
	st *state
	tx *txn
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	data := &dataset{}
	if err := load(dir, keysFile, &data.keys); err != nil {
		return nil, err
	}
	if err := load(dir, candidatesFile, &data.candidates); err != nil {
		return nil, err
	}
	if err := load(dir, sessionsFile, &data.sessions); err != nil {
		return nil, err
	}
	if err := load(dir, votesFile, &data.votes); err != nil {
		return nil, err
	}

	return &Store{st: &state{dir: dir, data: data}}, nil
}

func (s *Store) Keys() ports.KeyRepository {
	return &keyRepository{s: s}
}

func (s *Store) Candidates() ports.CandidateRepository {
	return &candidateRepository{s: s}
}

func (s *Store) Sessions() ports.SessionRepository {
	return &sessionRepository{s: s}
}

func (s *Store) Votes() ports.VoteRepository {
	return &voteRepository{s: s}
}

func (s *Store) Atomic(ctx context.Context, fn func(ports.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.commit(ctx, func(t *txn) error {
		return fn(&Store{st: s.st, tx: t})
	})
}

// run executes fn inside the running unit of work, or in a unit of work of
// its own when called outside Atomic.
func (s *Store) run(ctx context.Context, fn func(*txn) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.commit(ctx, fn)
}

func (s *Store) commit(ctx context.Context, fn func(*txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	t := &txn{data: s.st.data.clone(), dirty: make(map[collection]bool)}
	if err := fn(t); err != nil {
		return err
	}
	if len(t.dirty) == 0 {
		return nil
	}

	if err := s.st.persist(t); err != nil {
		return err
	}
	s.st.data = t.data
	return nil
}

// persist writes every dirty collection. If one write fails the collections
// already written are restored from the committed dataset.
func (st *state) persist(t *txn) error {
	var written []collection
	for _, c := range collections {
		if !t.dirty[c] {
			continue
		}
		if err := st.write(c, t.data); err != nil {
			for _, w := range written {
				_ = st.write(w, st.data)
			}
			return err
		}
		written = append(written, c)
	}
	return nil
}

func (st *state) write(c collection, d *dataset) error {
	var v any
	switch c {
	case keysFile:
		v = d.keys
	case candidatesFile:
		v = d.candidates
	case sessionsFile:
		v = d.sessions
	case votesFile:
		v = d.votes
	}
	return save(st.dir, c, v)
}

func path(dir string, c collection) string {
	return filepath.Join(dir, string(c)+".json")
}

func load(dir string, c collection, v any) error {
	data, err := os.ReadFile(path(dir, c))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", c, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", c, err)
	}
	return nil
}

func save(dir string, c collection, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", c, err)
	}

	target := path(dir, c)
	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c, err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %w", c, err)
	}
	return nil
}
