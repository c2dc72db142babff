package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

func TestDo_RetriesBackendUnavailable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3}, func() error {
		calls++
		return apperrors.BackendUnavailable(errors.New("connection refused"))
	})

	assert.True(t, apperrors.IsBackendUnavailable(err))
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5}, func() error {
		calls++
		if calls < 2 {
			return apperrors.BackendUnavailable(errors.New("timeout"))
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_DoesNotRetryOtherKinds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3}, func() error {
		calls++
		return apperrors.SchemaMismatch("patients", errors.New("relation does not exist"))
	})

	assert.True(t, apperrors.IsSchemaMismatch(err))
	assert.Equal(t, 1, calls)
}
