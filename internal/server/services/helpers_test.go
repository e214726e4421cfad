package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gestcard/internal/timex"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	account *models.Account
	token   string
	expires time.Time
	err     error
	calls   int
}

func (n *recordingNotifier) NotifyReset(ctx context.Context, a *models.Account, token string, expires time.Time) error {
	n.calls++
	n.account, n.token, n.expires = a, token, expires
	return n.err
}

type fixture struct {
	svc      *AuthService
	manager  *repomanager.InMemoryRepositoryManager
	issuer   *auth.TokenIssuer
	clock    *timex.FixedClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := timex.NewFixedClock(testNow)
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}, clock)
	require.NoError(t, err)

	m := repomanager.NewInMemoryRepositoryManager()
	n := &recordingNotifier{}

	return &fixture{
		svc:      NewAuthService(nil, m, hasher, issuer, n, clock, time.Hour, logging.Discard()),
		manager:  m,
		issuer:   issuer,
		clock:    clock,
		notifier: n,
	}
}

func (f *fixture) register(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	return res
}

type failingHasher struct{ auth.PasswordHasher }

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hash failed") }
