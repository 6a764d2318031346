package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/ws"
)

func newAuthFixture(t *testing.T, delay time.Duration) (*SessionStore, *recordingHub, AuthService, string) {
	t.Helper()

	store := newTestStore(t, time.Hour)
	hub := newRecordingHub()
	svc := NewAuthService(store, delay, hub, zap.NewNop())
	id := store.Create("en").ID

	_, _, err := store.SetView(id, models.ViewAccount)
	require.NoError(t, err)
	return store, hub, svc, id
}

func TestAuth_ValidationLeavesFlagUnchanged(t *testing.T) {
	store, hub, svc, id := newAuthFixture(t, 0)

	tests := []struct {
		name string
		req  models.AuthRequest
		key  string
	}{
		{"empty email", models.AuthRequest{Mode: models.AuthModeLogin, Password: "x"}, "auth.fillAllFields"},
		{"empty password", models.AuthRequest{Mode: models.AuthModeLogin, Email: "a@b.c"}, "auth.fillAllFields"},
		{"blank email", models.AuthRequest{Email: "   ", Password: "x"}, "auth.fillAllFields"},
		{"mismatch", models.AuthRequest{Mode: models.AuthModeSignup, Email: "a@b.c", Password: "x", ConfirmPassword: "y"}, "auth.passwordMismatch"},
		{"bad mode", models.AuthRequest{Mode: "magic", Email: "a@b.c", Password: "x"}, "auth.unknownMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Submit(context.Background(), id, &req)
			require.ErrorIs(t, err, pkg.ErrBadRequest)
			key, _ := pkg.NoticeKey(err)
			assert.Equal(t, tt.key, key)

			s, err := store.Snapshot(id)
			require.NoError(t, err)
			assert.False(t, s.LoggedIn)
		})
	}
	assert.Empty(t, hub.ops(id))
}

func TestAuth_LoginAndSignup(t *testing.T) {
	for _, tc := range []struct {
		mode models.AuthMode
		key  string
	}{
		{models.AuthModeLogin, "auth.loggedIn"},
		{models.AuthModeSignup, "auth.signedUp"},
	} {
		t.Run(string(tc.mode), func(t *testing.T) {
			store, hub, svc, id := newAuthFixture(t, 30*time.Millisecond)

			start := time.Now()
			res, err := svc.Submit(context.Background(), id, &models.AuthRequest{
				Mode: tc.mode, Email: "farmer@example.com", Password: "pw", ConfirmPassword: "pw",
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

			assert.Equal(t, tc.key, res.NoticeKey)
			assert.True(t, res.Session.LoggedIn)

			s, err := store.Snapshot(id)
			require.NoError(t, err)
			assert.True(t, s.LoggedIn)
			assert.Equal(t, []string{ws.OpSessionUpdate}, hub.ops(id))
		})
	}
}

func TestAuth_ConcurrentDuplicateConflicts(t *testing.T) {
	store, hub, svc, id := newAuthFixture(t, 200*time.Millisecond)
	req := func() *models.AuthRequest {
		return &models.AuthRequest{Email: "a@b.c", Password: "pw"}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Submit(context.Background(), id, req())
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return store.Pending(id, OpLogin) }, time.Second, 5*time.Millisecond)
	_, err := svc.Submit(context.Background(), id, req())
	require.ErrorIs(t, err, pkg.ErrConflict)
	key, _ := pkg.NoticeKey(err)
	assert.Equal(t, "auth.inProgress", key)

	wg.Wait()
	assert.Equal(t, []string{ws.OpSessionUpdate}, hub.ops(id), "the flag flips once")
}

func TestAuth_LeavingAccountCancels(t *testing.T) {
	store, _, svc, id := newAuthFixture(t, time.Minute)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), id, &models.AuthRequest{Email: "a@b.c", Password: "pw"})
		errc <- err
	}()

	require.Eventually(t, func() bool { return store.Pending(id, OpLogin) }, time.Second, 5*time.Millisecond)
	_, _, err := store.SetView(id, models.ViewHome)
	require.NoError(t, err)

	select {
	case err := <-errc:
		require.ErrorIs(t, err, pkg.ErrCanceled)
	case <-time.After(2 * time.Second):
		t.Fatal("login was not cancelled")
	}

	s, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.False(t, s.LoggedIn)
}

func TestAuth_LogoutAndAccount(t *testing.T) {
	_, hub, svc, id := newAuthFixture(t, 0)
	ctx := context.Background()

	_, err := svc.Account(ctx, id)
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	key, _ := pkg.NoticeKey(err)
	assert.Equal(t, "auth.loginRequired", key)

	_, err = svc.Submit(ctx, id, &models.AuthRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	profile, err := svc.Account(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", profile.Name)
	assert.Equal(t, "john.doe@example.com", profile.Email)

	s, err := svc.Logout(ctx, id)
	require.NoError(t, err)
	assert.False(t, s.LoggedIn)
	assert.Equal(t, []string{ws.OpSessionUpdate, ws.OpSessionUpdate}, hub.ops(id))

	_, err = svc.Account(ctx, id)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}
