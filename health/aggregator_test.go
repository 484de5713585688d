package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_AllHealthy(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register("redis", func(ctx context.Context) error { return nil })
	agg.Register("database", func(ctx context.Context) error { return nil })

	response := agg.Check(context.Background())
	assert.True(t, response.IsHealthy())
	require.Len(t, response.Checks, 2)
	assert.Equal(t, StatusHealthy, response.Checks["redis"].Status)
}

func TestAggregator_OneFailureDegradesOverall(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register("redis", func(ctx context.Context) error { return nil })
	agg.Register("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	response := agg.Check(context.Background())
	assert.False(t, response.IsHealthy())
	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, StatusHealthy, response.Checks["redis"].Status)
	assert.Equal(t, StatusUnhealthy, response.Checks["database"].Status)
	assert.Contains(t, response.Checks["database"].Error, "connection refused")
}

func TestAggregator_SlowProbeTimesOut(t *testing.T) {
	agg := NewAggregator(20 * time.Millisecond)
	agg.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	started := time.Now()
	response := agg.Check(context.Background())
	assert.Less(t, time.Since(started), time.Second)
	assert.False(t, response.IsHealthy())
}

func TestAggregator_NoProbes(t *testing.T) {
	agg := NewAggregator(0)
	response := agg.Check(context.Background())
	assert.True(t, response.IsHealthy())
	assert.Empty(t, response.Checks)
}
