package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
)

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	g := &groupDomain.Group{ID: "sales", Name: "Sales", Type: "assignment"}
	require.NoError(t, c.Set(ctx, groupDomain.CacheKeyByID(g.ID), g, 60))

	var got groupDomain.Group
	hit, err := c.Get(ctx, groupDomain.CacheKeyByID("sales"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, *g, got)

	require.NoError(t, c.Delete(ctx, groupDomain.CacheKeyByID("sales")))
	hit, err = c.Get(ctx, groupDomain.CacheKeyByID("sales"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_ExpiredIsMiss(t *testing.T) {
	c := NewInMemoryCache(10*time.Millisecond, time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	time.Sleep(30 * time.Millisecond)

	var got string
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_StopTwice(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
