package utility

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

func TestPathLockerSerializesSameKey(t *testing.T) {
	locker := NewPathLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "u-001/art1")
			if err != nil {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen)
	require.Empty(t, locker.locks)
}

func TestPathLockerDifferentKeysDoNotBlock(t *testing.T) {
	locker := NewPathLocker()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestPathLockerHonorsContext(t *testing.T) {
	locker := NewPathLocker()

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	require.ErrorIs(t, err, constant.ErrLockTimeout)

	unlock()
	unlock()
	require.Empty(t, locker.locks)

	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestNewKeyLockerFallsBackWithoutRedis(t *testing.T) {
	locker := NewKeyLocker(nil, "artwork:lock:", time.Minute)
	_, ok := locker.(*PathLocker)
	require.True(t, ok)
}
