package composables

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestUseLogger(t *testing.T) {
	require.NotNil(t, UseLogger(context.Background()))

	entry := logrus.New().WithField("request-id", "abc")
	ctx := WithLogger(context.Background(), entry)
	require.Same(t, entry, UseLogger(ctx))
}

func TestRequestIDAndStart(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, UseRequestID(ctx))
	_, ok := UseRequestStart(ctx)
	require.False(t, ok)

	now := time.Now()
	ctx = WithRequestStart(WithRequestID(ctx, "req-1"), now)
	require.Equal(t, "req-1", UseRequestID(ctx))
	got, ok := UseRequestStart(ctx)
	require.True(t, ok)
	require.Equal(t, now, got)
}
