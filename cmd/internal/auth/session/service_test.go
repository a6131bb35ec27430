package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tasker/cmd/identity"
	"tasker/cmd/security/password"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[event+"/"+outcome]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

type fixture struct {
	svc     *Service
	users   *identity.MemoryStore
	records *MemoryStore
	events  *countingRecorder
	clock   *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pwCfg := password.DefaultConfig()
	pwCfg.Cost = bcrypt.MinCost

	users := identity.NewMemoryStore()
	records := NewMemoryStore()
	iss, err := NewIssuer(testConfig(), records)
	require.NoError(t, err)

	events := &countingRecorder{}
	clk := &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	svc := NewService(users, password.NewHasher(pwCfg, nil), iss,
		WithEventRecorder(events),
		WithClock(clk.Now),
	)
	return &fixture{svc: svc, users: users, records: records, events: events, clock: clk}
}

func (f *fixture) register(t *testing.T, email, pw string) AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: pw})
	require.NoError(t, err)
	return res
}

func (f *fixture) recordFor(t *testing.T, refreshToken string) Record {
	t.Helper()
	c, err := f.svc.Issuer().VerifyRefresh(refreshToken, f.clock.Now())
	require.NoError(t, err)
	rec, ok := f.records.Get(c.TokenID)
	require.True(t, ok)
	return rec
}

func TestRegister_ReturnsPairAndPublicUser(t *testing.T) {
	f := newFixture(t)
	name := "Ada"

	res, err := f.svc.Register(context.Background(), RegisterInput{Email: "Ada@X.com", Password: "right-pw", Name: &name})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "Ada@X.com", res.User.Email)
	require.NotNil(t, res.User.Name)
	require.Equal(t, "Ada", *res.User.Name)
	require.Equal(t, 1, f.records.Len())

	ac, err := f.svc.Issuer().VerifyAccess(res.AccessToken, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, res.User.ID, ac.UserID)
	require.Equal(t, 1, f.events.get("register/success"))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "right-pw")

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: " A@X.COM ", Password: "other-pw"})
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Equal(t, 1, f.events.get("register/conflict"))
}

func TestRegister_PasswordPolicy(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "123"})
	require.ErrorIs(t, err, password.ErrPasswordTooShort)
	require.Equal(t, 0, f.records.Len())
	require.Equal(t, 1, f.events.get("register/invalid_input"))
}

func TestLogin_Succeeds(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right")

	res, err := f.svc.Login(context.Background(), "a@x.com", "right")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, res.User.ID)
	require.Equal(t, "a@x.com", res.User.Email)
	require.Equal(t, 2, f.records.Len())
}

func TestLogin_UniformFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "right-pw")

	_, wrongPw := f.svc.Login(context.Background(), "a@x.com", "wrong-pw")
	_, unknown := f.svc.Login(context.Background(), "nobody@x.com", "right-pw")

	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, unknown, ErrInvalidCredentials)
	require.Equal(t, wrongPw.Error(), unknown.Error())
	require.Equal(t, 2, f.events.get("login/invalid_credentials"))
}

func TestRefresh_OneTimeUse(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	old := f.recordFor(t, reg.RefreshToken)

	f.clock.Advance(time.Second)
	res, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, reg.RefreshToken, res.RefreshToken)
	require.Equal(t, reg.User.ID, res.User.ID)

	revoked, _ := f.records.Get(old.ID)
	require.NotNil(t, revoked.RevokedAt)
	require.Equal(t, 2, f.records.Len())

	_, err = f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.True(t, IsRefreshRejected(err))

	// The replacement still works.
	_, err = f.svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_StoredExpiryWins(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	rec := f.recordFor(t, reg.RefreshToken)

	f.records.SetExpiry(rec.ID, f.clock.Now().Add(-time.Minute))

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)

	after, _ := f.records.Get(rec.ID)
	require.Nil(t, after.RevokedAt, "expired record must not be rotated")
}

func TestRefresh_StoredExpiryHasNoLeeway(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	rec := f.recordFor(t, reg.RefreshToken)

	f.records.SetExpiry(rec.ID, f.clock.Now())

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRefresh_HashMismatch(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	rec := f.recordFor(t, reg.RefreshToken)

	// Overwrite the stored hash as if a different token had been issued under this id.
	tampered := rec
	tampered.TokenHash = f.svc.Issuer().HashToken("something-else")
	require.NoError(t, f.records.Create(context.Background(), tampered))

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)
}

func TestRefresh_InvalidToken(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	for _, tok := range []string{"", "garbage", reg.AccessToken} {
		_, err := f.svc.Refresh(context.Background(), tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	}

	f.clock.Advance(8 * 24 * time.Hour)
	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_UserVanished(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	f.users.Delete(reg.User.ID)

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.True(t, IsRefreshRejected(err))
}

func TestRefresh_ConcurrentExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	const n = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Refresh(context.Background(), reg.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.True(t, IsRefreshRejected(err), "unexpected error: %v", err)
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 2, f.records.Len())
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")
	rec := f.recordFor(t, reg.RefreshToken)

	require.NoError(t, f.svc.Logout(context.Background(), reg.RefreshToken))
	after, _ := f.records.Get(rec.ID)
	require.NotNil(t, after.RevokedAt)
	revokedAt := *after.RevokedAt

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Logout(context.Background(), reg.RefreshToken))
	again, _ := f.records.Get(rec.ID)
	require.True(t, again.RevokedAt.Equal(revokedAt), "second logout must not touch the record")

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.True(t, IsRefreshRejected(err))
}

func TestLogout_GarbageHasNoEffect(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	require.NoError(t, f.svc.Logout(context.Background(), "garbage"))
	require.NoError(t, f.svc.Logout(context.Background(), ""))
	require.NoError(t, f.svc.Logout(context.Background(), reg.AccessToken))

	rec := f.recordFor(t, reg.RefreshToken)
	require.Nil(t, rec.RevokedAt)
	require.Equal(t, 1, f.records.Len())
}

func TestLogout_AfterRotationIsNoop(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	res, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), reg.RefreshToken))

	// The replacement is untouched.
	_, err = f.svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
}

type brokenRecords struct{ *MemoryStore }

func (b brokenRecords) RevokeMatching(context.Context, string, string, string, time.Time) (bool, error) {
	return false, errors.New("db down")
}

func TestLogout_SurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	f.svc.records = brokenRecords{f.records}
	require.EqualError(t, f.svc.Logout(context.Background(), reg.RefreshToken), "db down")
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "a@x.com", "right-pw")

	u, err := f.svc.CurrentUser(context.Background(), reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, reg.User, u)

	f.users.Delete(reg.User.ID)
	_, err = f.svc.CurrentUser(context.Background(), reg.User.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}
