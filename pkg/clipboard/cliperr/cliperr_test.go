package cliperr

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithOp_LeavesSentinelUntouched(t *testing.T) {
	err := WithOp(ErrMechanismFailure, "copy")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "copy", e.Op)
	assert.NotSame(t, ErrMechanismFailure, e)
	assert.Empty(t, ErrMechanismFailure.Op)
	assert.ErrorIs(t, err, ErrMechanismFailure)
}

func TestWithOp_SharedErrorAcrossCalls(t *testing.T) {
	shared := Mechanism("async-api", "denied", nil)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = WithOp(shared, fmt.Sprintf("op-%d", i))
		}(i)
	}
	wg.Wait()

	assert.Empty(t, shared.Op)
	for i, err := range results {
		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, fmt.Sprintf("op-%d", i), e.Op)
	}
}

func TestWithOp_WrappedError(t *testing.T) {
	inner := ExitCode("xclip", 1)
	wrapped := fmt.Errorf("write failed: %w", inner)

	err := WithOp(wrapped, "copy")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "copy", e.Op)
	assert.Equal(t, KindExitCode, e.Kind)
	assert.Equal(t, 1, e.Code)
	assert.Empty(t, inner.Op)
	assert.ErrorIs(t, err, ErrExitCode)
	assert.Contains(t, err.Error(), "write failed")
}

func TestWithOp_KeepsExistingOp(t *testing.T) {
	e := Timeout("slow")
	e.Op = "read"

	err := WithOp(e, "copy")
	assert.Same(t, e, err)
	assert.Equal(t, "read", e.Op)
}

func TestWithOp_PlainError(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, WithOp(plain, "copy"))
	assert.Nil(t, WithOp(nil, "copy"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSpawnFailure, KindOf(fmt.Errorf("x: %w", Spawn("no xclip", nil))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
