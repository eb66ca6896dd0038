//go:build unix

package cli

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownContext_Signal(t *testing.T) {
	ctx, stop := ShutdownContext(context.Background(), nil)
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by SIGTERM")
	}
	assert.ErrorIs(t, context.Cause(ctx), ErrInterrupted)
}

func TestShutdownContext_Stop(t *testing.T) {
	ctx, stop := ShutdownContext(context.Background(), nil)
	stop()

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.NotErrorIs(t, context.Cause(ctx), ErrInterrupted)
}
