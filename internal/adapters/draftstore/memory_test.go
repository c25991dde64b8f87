package draftstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SanduqVerify/internal/core/ports"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// 1. Missing key.
	_, ok, err := store.Get(ctx, ports.KeyVerificationData)
	require.NoError(t, err)
	assert.False(t, ok)

	// 2. Put then Get.
	require.NoError(t, store.Put(ctx, ports.KeyVerificationData, `{"firstName":"Sara"}`))
	v, ok, err := store.Get(ctx, ports.KeyVerificationData)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"firstName":"Sara"}`, v)

	// 3. Overwrite.
	require.NoError(t, store.Put(ctx, ports.KeyVerificationData, `{}`))
	v, _, _ = store.Get(ctx, ports.KeyVerificationData)
	assert.Equal(t, `{}`, v)

	// 4. Delete, including a key that is already gone.
	require.NoError(t, store.Delete(ctx, ports.KeyVerificationData))
	_, ok, _ = store.Get(ctx, ports.KeyVerificationData)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, ports.KeyVerificationData))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = store.Put(ctx, ports.KeyCurrentStep, "1")
				_, _, _ = store.Get(ctx, ports.KeyCurrentStep)
			}
		}()
	}
	wg.Wait()

	v, ok, err := store.Get(ctx, ports.KeyCurrentStep)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)
}
