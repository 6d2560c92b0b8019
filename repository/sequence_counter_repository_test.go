package repository_test

import (
	"context"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/repository"
	testingutil "github.com/amirphl/crud-project/testing"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allocateConcurrently calls Next n times from n goroutines and returns the sorted results
func allocateConcurrently(t *testing.T, seq repository.SequenceCounterRepository, name string, n int) []int64 {
	t.Helper()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values = make([]int64, 0, n)
		errs   = make([]error, 0)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(context.Background(), name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			values = append(values, v)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	slices.Sort(values)
	return values
}

func expectedRange(from int64, n int) []int64 {
	out := make([]int64, 0, n)
	for i := range n {
		out = append(out, from+int64(i))
	}
	return out
}

func TestSequenceCounterRepositoryPostgres(t *testing.T) {
	tdb := testingutil.RequireTestDB(t)
	seq := repository.NewSequenceCounterRepository(tdb.DB)
	ctx := context.Background()

	current, err := seq.Current(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Zero(t, current, "absent counter reads as zero")

	first, err := seq.Next(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first, "absent counter is created at one")

	second, err := seq.Next(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	other, err := seq.Next(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counters are independent per name")

	const n = 50
	values := allocateConcurrently(t, seq, models.DemoSequenceName, n)
	assert.Equal(t, expectedRange(3, n), values)

	current, err = seq.Current(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Equal(t, int64(2+n), current)

	_, err = seq.Next(ctx, "")
	assert.Error(t, err)
}

func TestSequenceCounterRepositoryWithoutConnection(t *testing.T) {
	ctx := context.Background()

	_, err := repository.NewSequenceCounterRepository(nil).Next(ctx, models.DemoSequenceName)
	assert.ErrorIs(t, err, repository.ErrStorageUnavailable)

	_, err = repository.NewRedisSequenceCounterRepository(nil, "crud:").Next(ctx, models.DemoSequenceName)
	assert.ErrorIs(t, err, repository.ErrStorageUnavailable)
}

func TestSequenceCounterRepositoryRedis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("skipping: TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rc := redis.NewClient(opt)
	t.Cleanup(func() { _ = rc.Close() })

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		t.Skipf("skipping: redis unreachable: %v", err)
	}

	prefix := "crud-test:" + uuid.NewString() + ":"
	t.Cleanup(func() { rc.Del(context.Background(), prefix+"sequence:"+models.DemoSequenceName) })

	seq := repository.NewRedisSequenceCounterRepository(rc, prefix)
	ctx := context.Background()

	current, err := seq.Current(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Zero(t, current)

	first, err := seq.Next(ctx, models.DemoSequenceName)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	const n = 50
	values := allocateConcurrently(t, seq, models.DemoSequenceName, n)
	assert.Equal(t, expectedRange(2, n), values)
}
