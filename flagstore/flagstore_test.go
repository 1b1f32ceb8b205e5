package flagstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemFlagStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemFlagStore()

	flags, err := s.Get(ctx, "group/g1")
	assert.NoError(err)
	assert.Empty(flags)

	assert.NoError(s.Add(ctx, "group/g1", []string{"lockdown"}, 0))
	ok, err := Has(ctx, s, "group/g1", "lockdown")
	assert.NoError(err)
	assert.True(ok)
	ok, err = Has(ctx, s, "group/g1", "other")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(s.Remove(ctx, "group/g1", []string{"lockdown"}))
	flags, err = s.Get(ctx, "group/g1")
	assert.NoError(err)
	assert.Empty(flags)

	// removing absent flags is not an error
	assert.NoError(s.Remove(ctx, "group/g1", []string{"lockdown"}))
}

func TestMemFlagStoreTTL(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Now()
	s := NewMemFlagStore()
	s.Now = func() time.Time { return now }

	assert.NoError(s.Add(ctx, "group/g1", []string{"lockdown"}, 5*time.Minute))

	ok, err := Has(ctx, s, "group/g1", "lockdown")
	assert.NoError(err)
	assert.True(ok)

	now = now.Add(6 * time.Minute)
	ok, err = Has(ctx, s, "group/g1", "lockdown")
	assert.NoError(err)
	assert.False(ok)

	// re-adding refreshes expiry
	assert.NoError(s.Add(ctx, "group/g1", []string{"lockdown"}, 5*time.Minute))
	now = now.Add(4 * time.Minute)
	assert.NoError(s.Add(ctx, "group/g1", []string{"lockdown"}, 5*time.Minute))
	now = now.Add(4 * time.Minute)
	ok, err = Has(ctx, s, "group/g1", "lockdown")
	assert.NoError(err)
	assert.True(ok)
}
