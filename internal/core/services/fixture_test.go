package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/jsonfile"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

const (
	testSecret   = "test-secret"
	testPassword = "correct horse"
)

type fixture struct {
	store      ports.Store
	auth       *services.AuthService
	votes      ports.VoteService
	keys       ports.KeyService
	candidates ports.CandidateService
	sessions   ports.SessionService
	admin      ports.AdminService
	reconcile  ports.ReconcileService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithTTL(t, time.Hour)
}

func newFixtureWithTTL(t *testing.T, voterTTL time.Duration) *fixture {
	t.Helper()

	store, err := jsonfile.NewStore(t.TempDir())
	require.NoError(t, err)
	return newFixtureWithStore(t, store, voterTTL)
}

// newSQLiteFixture runs the services against the SQL store on a SQLite file.
func newSQLiteFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqldb.Open(ctx, sqldb.DriverSQLite, filepath.Join(t.TempDir(), "keyvote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqldb.Migrate(ctx, db))

	return newFixtureWithStore(t, sqldb.NewStore(db), time.Hour)
}

func newFixtureWithStore(t *testing.T, store ports.Store, voterTTL time.Duration) *fixture {
	t.Helper()

	hash, err := services.HashAdminPassword(testPassword)
	require.NoError(t, err)

	auth := services.NewAuthService(store, services.AuthConfig{
		JWTSecret:         []byte(testSecret),
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		VoterTokenTTL:     voterTTL,
	})

	return &fixture{
		store:      store,
		auth:       auth,
		votes:      services.NewVoteService(store, auth, services.NewKeyHasher([]byte(testSecret))),
		keys:       services.NewKeyService(store),
		candidates: services.NewCandidateService(store),
		sessions:   services.NewSessionService(store),
		admin:      services.NewAdminService(store),
		reconcile:  services.NewReconcileService(store),
	}
}

// prepare issues keys, configures the named candidates and, when open is
// set, starts a session.
func (f *fixture) prepare(t *testing.T, open bool, names ...string) ([]string, []domain.Candidate) {
	t.Helper()
	ctx := context.Background()

	keys, err := f.keys.GenerateKeys(ctx)
	require.NoError(t, err)

	input := make([]domain.CandidateDescriptor, len(names))
	for i, n := range names {
		input[i].Name = n
	}
	candidates, err := f.candidates.Configure(ctx, input)
	require.NoError(t, err)

	if open {
		_, err = f.sessions.Start(ctx)
		require.NoError(t, err)
	}
	return keys, candidates
}

func (f *fixture) redeem(t *testing.T, key string) string {
	t.Helper()
	token, err := f.auth.RedeemKey(context.Background(), key)
	require.NoError(t, err)
	return token
}

func (f *fixture) vote(t *testing.T, key string, candidate domain.Candidate) {
	t.Helper()
	err := f.votes.CastVote(context.Background(), ports.CastVoteInput{
		Token:       f.redeem(t, key),
		CandidateID: candidate.ID.String(),
	})
	require.NoError(t, err)
}

// forgeVoterToken signs a voter token for an arbitrary key with the test
// secret, bypassing redemption.
func forgeVoterToken(t *testing.T, keyID, key string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"keyId":     keyID,
		"votingKey": key,
		"iss":       "keyvote",
		"aud":       "voter",
		"iat":       now.Unix(),
		"exp":       now.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// hookedStore wraps a store so a test can run a step right before the first
// unit of work starts, or swap in its own vote repository.
type hookedStore struct {
	ports.Store
	votes        ports.VoteRepository
	beforeAtomic func()
	once         sync.Once
}

func (s *hookedStore) Votes() ports.VoteRepository {
	if s.votes != nil {
		return s.votes
	}
	return s.Store.Votes()
}

func (s *hookedStore) Atomic(ctx context.Context, fn func(ports.Store) error) error {
	if s.beforeAtomic != nil {
		s.once.Do(s.beforeAtomic)
	}
	return s.Store.Atomic(ctx, fn)
}

// castBeforeWindowCount casts a vote the first time a session window is
// counted.
type castBeforeWindowCount struct {
	ports.VoteRepository
	cast func()
	once sync.Once
}

func (r *castBeforeWindowCount) CountBetween(ctx context.Context, from time.Time, to *time.Time) (int, error) {
	r.once.Do(r.cast)
	return r.VoteRepository.CountBetween(ctx, from, to)
}
