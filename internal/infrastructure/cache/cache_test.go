package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/domain/entes"
)

func TestStatsCache(t *testing.T) {
	c := NewStatsCache(time.Minute)

	_, ok := c.Get()
	assert.False(t, ok)

	c.Set(entes.Stats{Counts: entes.Counts{TotalEntities: 7}})
	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, int64(7), got.TotalEntities)

	c.OnEntesChanged(ChannelEntesChanged, "INSERT")
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestStatsCache_Expires(t *testing.T) {
	c := NewStatsCache(20 * time.Millisecond)
	c.Set(entes.Stats{})

	assert.Eventually(t, func() bool {
		_, ok := c.Get()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestListener_Dispatch(t *testing.T) {
	l := NewListener(nil, ChannelEntesChanged)

	var got []string
	l.On(ChannelEntesChanged, func(channel, payload string) {
		got = append(got, channel+":"+payload)
	})
	l.On(ChannelEntesChanged, func(string, string) { panic("boom") })
	l.On("other", func(string, string) { t.Fatal("wrong channel") })

	l.dispatch(context.Background(), ChannelEntesChanged, "UPDATE")
	l.dispatch(context.Background(), ChannelEntesChanged, "DELETE")

	assert.Equal(t, []string{"entes_changed:UPDATE", "entes_changed:DELETE"}, got)
}

func TestListener_StopWithoutStart(t *testing.T) {
	l := NewListener(nil)
	assert.NotPanics(t, l.Stop)
}
