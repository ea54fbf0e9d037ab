package postgres

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

func connReset() error {
	return &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
}

func TestClassify_DriverFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"lock timeout", &pgconn.PgError{Code: codeLockNotAvailable}, true},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, true},
		{"serialization failure", &pgconn.PgError{Code: codeSerializationFailure}, true},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation}, false},
		{"lost connection", connReset(), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, shared.IsRetryable(classify("Op", tt.err)))
		})
	}

	assert.ErrorIs(t, classify("Op", &pgconn.PgError{Code: codeLockNotAvailable}), collaboration.ErrLockTimeout)
}

func TestClassifyCommit_LostConnectionIsNotRetried(t *testing.T) {
	err := classifyCommit(fmt.Errorf("commit error: %w", connReset()))

	assert.False(t, shared.IsRetryable(err))
	assert.ErrorIs(t, err, ErrCommitOutcomeUnknown)

	var netErr net.Error
	assert.ErrorAs(t, err, &netErr)
}

func TestClassifyCommit_ServerRejectionIsRetried(t *testing.T) {
	err := classifyCommit(fmt.Errorf("commit error: %w", &pgconn.PgError{Code: codeSerializationFailure}))

	assert.True(t, shared.IsRetryable(err))
	assert.NotErrorIs(t, err, ErrCommitOutcomeUnknown)
}

func TestClassifyCommit_Nil(t *testing.T) {
	assert.NoError(t, classifyCommit(nil))
}
