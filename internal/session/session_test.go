package session

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/busdesk/internal/fakeapi"
	"github.com/naveenspark/busdesk/internal/metrics"
	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

type testFixture struct {
	api     *fakeapi.Server
	client  *client.Client
	sess    *Store
	storage *MemoryStorage
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts ...Option) *testFixture {
	t.Helper()
	api := fakeapi.New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	m := metrics.New(prometheus.NewRegistry())
	c := client.New(srv.URL, nil, client.WithMetrics(m))
	storage := &MemoryStorage{}
	sess := New(c, storage, append([]Option{WithMetrics(m)}, opts...)...)
	c.SetTokenSource(sess)
	c.SetRefresher(sess)

	return &testFixture{api: api, client: c, sess: sess, storage: storage, metrics: m}
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	f.api.AddAccount("ana@example.com", "Ana", "secret")
	require.NoError(t, f.sess.Login(context.Background(), "ana@example.com", "secret"))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "ana@example.com", ExpiresAt: jwt.NewNumericDate(exp)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	assert.True(t, f.sess.IsAuth())
	assert.Equal(t, Authenticated, f.sess.State())
	assert.Empty(t, f.sess.LastError())
	assert.False(t, f.sess.Loading())

	id := f.sess.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Empty(t, id.Password)

	stored, err := f.storage.Get()
	require.NoError(t, err)
	assert.Equal(t, f.sess.Token(), stored)
	assert.NotEmpty(t, stored)

	exp, ok := f.sess.ExpiresAt()
	assert.True(t, ok)
	assert.True(t, exp.After(time.Now()))
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.api.AddAccount("ana@example.com", "Ana", "secret")

	err := f.sess.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, 403))
	assert.Equal(t, MsgBadCredentials, f.sess.LastError())
	assert.Equal(t, Anonymous, f.sess.State())
	assert.False(t, f.sess.IsAuth())
	assert.Empty(t, f.sess.Token())
	assert.Equal(t, 0, f.api.Refreshes(), "a rejected login never triggers a refresh")
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sess.Register(context.Background(), "new@example.com", "New", "pw"))
	assert.True(t, f.sess.IsAuth())
	assert.Equal(t, "New", f.sess.Identity().Name)

	other := newFixture(t)
	other.api.AddAccount("taken@example.com", "Taken", "pw")
	err := other.sess.Register(context.Background(), "taken@example.com", "Again", "pw")
	require.Error(t, err)
	assert.Equal(t, "HTTP 409: email_taken", other.sess.LastError())
	assert.False(t, other.sess.IsAuth())
}

func TestLogoutClearsRegardlessOfServer(t *testing.T) {
	for _, fail := range []bool{false, true} {
		f := newFixture(t)
		require.NoError(t, f.storage.Set("abc"))
		require.NoError(t, f.sess.Restore())
		require.Equal(t, "abc", f.sess.Token())
		f.api.FailLogout(fail)

		err := f.sess.Logout(context.Background())
		if fail {
			assert.Error(t, err)
		} else {
			assert.NoError(t, err)
		}

		stored, getErr := f.storage.Get()
		require.NoError(t, getErr)
		assert.Empty(t, stored, "fail=%v", fail)
		assert.Empty(t, f.sess.Token())
		assert.False(t, f.sess.IsAuth())
		assert.Equal(t, Anonymous, f.sess.State())
	}
}

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	before := f.sess.Token()

	entered, release := f.api.BlockRefresh()
	defer release()

	const callers = 8
	errs := make(chan error, callers+1)
	go func() { errs <- f.sess.Refresh(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never reached the backend")
	}

	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			started.Done()
			errs <- f.sess.Refresh(context.Background())
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	release()

	for i := 0; i < callers+1; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, 1, f.api.Refreshes())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Refreshes("ok")))
	assert.True(t, f.sess.IsAuth())
	assert.NotEqual(t, before, f.sess.Token())
}

func TestLogoutWinsOverRefreshInFlight(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	entered, release := f.api.BlockRefresh()
	defer release()
	errs := make(chan error, 1)
	go func() { errs <- f.sess.Refresh(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never reached the backend")
	}
	require.NoError(t, f.sess.Logout(context.Background()))
	release()

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return")
	}
	assert.False(t, f.sess.IsAuth())
	assert.Equal(t, Anonymous, f.sess.State())
	assert.Empty(t, f.sess.Token())
	stored, _ := f.storage.Get()
	assert.Empty(t, stored)
}

func TestLateRefreshFailureKeepsNewLogin(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.api.EndSessions()

	entered, release := f.api.BlockRefresh()
	defer release()
	errs := make(chan error, 1)
	go func() { errs <- f.sess.Refresh(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never reached the backend")
	}
	require.NoError(t, f.sess.Login(context.Background(), "ana@example.com", "secret"))
	token := f.sess.Token()
	release()

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return")
	}
	assert.True(t, f.sess.IsAuth())
	assert.Equal(t, token, f.sess.Token())
	stored, _ := f.storage.Get()
	assert.Equal(t, token, stored)
}

func TestRefreshFailureSignsOut(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.api.EndSessions()

	err := f.sess.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, f.sess.IsAuth())
	assert.Equal(t, Anonymous, f.sess.State())
	assert.Empty(t, f.sess.Token())
	assert.Empty(t, f.sess.LastError(), "refresh failures are not shown to the user")
	stored, _ := f.storage.Get()
	assert.Empty(t, stored)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Refreshes("error")))
}

func TestExpiredTokenRefreshedOnRequest(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.api.Seed(client.ProvincePath, domain.Province{Name: "Lima"})
	old := f.sess.Token()
	f.api.ExpireTokens()

	provinces, err := client.List[domain.Province](context.Background(), f.client, client.ProvincePath)
	require.NoError(t, err)
	assert.Len(t, provinces, 1)
	assert.Equal(t, 1, f.api.Refreshes())
	assert.NotEqual(t, old, f.sess.Token())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Retries()))
}

func TestRequestFailsWhenRefreshFails(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.api.ExpireTokens()
	f.api.EndSessions()

	_, err := client.List[domain.City](context.Background(), f.client, client.CityPath)
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, 1, f.api.Refreshes())
	assert.False(t, f.sess.IsAuth())
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	t.Run("expired jwt discarded", func(t *testing.T) {
		f := newFixture(t, WithClock(func() time.Time { return now }))
		require.NoError(t, f.storage.Set(signedToken(t, now.Add(-time.Minute))))

		require.NoError(t, f.sess.Restore())
		assert.Empty(t, f.sess.Token())
		stored, _ := f.storage.Get()
		assert.Empty(t, stored)
	})

	t.Run("live jwt kept", func(t *testing.T) {
		f := newFixture(t, WithClock(func() time.Time { return now }))
		exp := now.Add(time.Hour)
		require.NoError(t, f.storage.Set(signedToken(t, exp)))

		require.NoError(t, f.sess.Restore())
		assert.NotEmpty(t, f.sess.Token())
		got, ok := f.sess.ExpiresAt()
		require.True(t, ok)
		assert.True(t, got.Equal(exp))
		assert.False(t, f.sess.IsAuth(), "identity waits for the backend")
	})

	t.Run("opaque token kept", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.storage.Set("abc"))

		require.NoError(t, f.sess.Restore())
		assert.Equal(t, "abc", f.sess.Token())
		_, ok := f.sess.ExpiresAt()
		assert.False(t, ok)
	})
}

func TestCheckUserExists(t *testing.T) {
	f := newFixture(t)
	f.api.AddAccount("ana@example.com", "Ana", "secret")

	ok, err := f.sess.CheckUserExists(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.sess.UserInDB())

	ok, err = f.sess.CheckUserExists(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.sess.UserInDB())

	before := f.api.Requests()
	ok, err = f.sess.CheckUserExists(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, f.api.Requests())
}

func TestSubscribeSignalsLogin(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.sess.Subscribe()
	defer cancel()

	f.login(t)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "refreshing", Refreshing.String())
	assert.Equal(t, "unknown", State(42).String())
}
