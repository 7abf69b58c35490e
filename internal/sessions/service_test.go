package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	require.Len(t, r, 64)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "user-1", sess.UserID)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess2, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess2)
}

func TestValidateRefresh_ExpiredIsRemoved(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Session{RefreshToken: "old", UserID: "u", ExpiresAt: time.Now().UTC().Add(-time.Minute)}))
	sess, err := svc.ValidateRefresh(ctx, "old")
	require.NoError(t, err)
	require.Nil(t, sess)

	raw, _ := repo.GetByRefresh(ctx, "old")
	require.Nil(t, raw)
}

func TestRotate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, "user-9", time.Hour)
	require.NoError(t, err)

	sess, next, err := svc.Rotate(ctx, first, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "user-9", sess.UserID)
	require.NotEqual(t, first, next)

	_, _, err = svc.Rotate(ctx, first, time.Hour)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	still, err := svc.ValidateRefresh(ctx, next)
	require.NoError(t, err)
	require.NotNil(t, still)
}

// rendezvousRepository holds every Consume caller until n of them have
// arrived, so the callers race on the same token.
type rendezvousRepository struct {
	*MemoryRepository
	arrived sync.WaitGroup
}

func newRendezvousRepository(n int) *rendezvousRepository {
	r := &rendezvousRepository{MemoryRepository: NewMemoryRepository()}
	r.arrived.Add(n)
	return r
}

func (r *rendezvousRepository) Consume(ctx context.Context, refresh string) (*Session, error) {
	r.arrived.Done()
	r.arrived.Wait()
	return r.MemoryRepository.Consume(ctx, refresh)
}

func rotateConcurrently(t *testing.T, svc *Service, refresh string, n int) (ok, invalid int32) {
	t.Helper()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Rotate(context.Background(), refresh, time.Hour)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrInvalidRefresh):
				atomic.AddInt32(&invalid, 1)
			default:
				t.Errorf("unexpected rotate error: %v", err)
			}
		}()
	}
	wg.Wait()
	return ok, invalid
}

func TestRotate_ConcurrentRedeemSucceedsOnce(t *testing.T) {
	repo := newRendezvousRepository(2)
	svc := NewService(repo)

	first, err := svc.CreateSession(context.Background(), "user-7", time.Hour)
	require.NoError(t, err)

	ok, invalid := rotateConcurrently(t, svc, first, 2)
	require.Equal(t, int32(1), ok)
	require.Equal(t, int32(1), invalid)
}

func TestRotate_ExpiredIsRejected(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Session{RefreshToken: "stale", UserID: "u", ExpiresAt: time.Now().UTC().Add(-time.Minute)}))
	_, _, err := svc.Rotate(ctx, "stale", time.Hour)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	raw, _ := repo.GetByRefresh(ctx, "stale")
	require.Nil(t, raw)
}
