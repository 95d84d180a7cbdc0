package idempotency

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeStore struct {
	records map[string]int
	lookups int
}

func (f *fakeStore) lookup(_ context.Context, key string) (int, bool, error) {
	f.lookups++
	v, ok := f.records[key]
	return v, ok, nil
}

func TestCheckOrCreateWithoutKeyAlwaysCreates(t *testing.T) {
	store := &fakeStore{records: map[string]int{}}
	calls := 0
	create := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	for i := 1; i <= 2; i++ {
		v, created, err := CheckOrCreate(context.Background(), "", store.lookup, create)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, i, v)
	}
	assert.Zero(t, store.lookups)
}

func TestCheckOrCreateReplaysExisting(t *testing.T) {
	store := &fakeStore{records: map[string]int{}}
	create := func(context.Context) (int, error) {
		store.records["k1"] = 42
		return 42, nil
	}

	v, created, err := CheckOrCreate(context.Background(), "k1", store.lookup, create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 42, v)

	v, created, err = CheckOrCreate(context.Background(), "k1", store.lookup, func(context.Context) (int, error) {
		t.Fatal("create must not run on replay")
		return 0, nil
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 42, v)
}

func TestCheckOrCreateRaceLoserGetsWinner(t *testing.T) {
	store := &fakeStore{records: map[string]int{}}
	create := func(context.Context) (int, error) {
		// another request committed the same key while this one was working
		store.records["k1"] = 7
		return 0, errors.New("unique violation")
	}

	v, created, err := CheckOrCreate(context.Background(), "k1", store.lookup, create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, store.lookups)
}

func TestCheckOrCreateReturnsCreateErrorWhenNoWinner(t *testing.T) {
	store := &fakeStore{records: map[string]int{}}
	boom := pkgerrors.New(pkgerrors.CodeStockConflict, "boom")

	_, created, err := CheckOrCreate(context.Background(), "k1", store.lookup, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.False(t, created)
	assert.ErrorIs(t, err, boom)
}

func TestCheckOrCreateLookupError(t *testing.T) {
	lookup := func(context.Context, string) (int, bool, error) {
		return 0, false, errors.New("db down")
	}
	_, _, err := CheckOrCreate(context.Background(), "k1", lookup, func(context.Context) (int, error) {
		t.Fatal("create must not run when lookup fails")
		return 0, nil
	})
	require.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	key, err := NormalizeKey("  abc  ")
	require.NoError(t, err)
	assert.Equal(t, "abc", key)

	key, err = NormalizeKey("   ")
	require.NoError(t, err)
	assert.Empty(t, key)

	_, err = NormalizeKey(strings.Repeat("x", MaxKeyLength))
	require.NoError(t, err)

	_, err = NormalizeKey(strings.Repeat("x", MaxKeyLength+1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
