package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormat(t *testing.T) {
	err := New(ErrCodeModelInvalid, "model has no reactions")
	assert.Equal(t, "[BIO_001] model has no reactions", err.Error())

	withDetail := err.WithDetail("model=iML1515")
	assert.Equal(t, "[BIO_001] model has no reactions: model=iML1515", withDetail.Error())
	// WithDetail must not mutate the original.
	assert.Empty(t, err.Detail)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrCodeExternalService, "BV-BRC query failed")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeExternalService, Code(err))
}

func TestWrapNil(t *testing.T) {
	var err error = Wrap(nil, ErrCodeInternal, "should vanish")
	// Wrap(nil, ...) returns a nil *AppError; callers returning it as error
	// must compare the concrete value, which is what this asserts.
	appErr, ok := err.(*AppError)
	require.True(t, ok)
	assert.Nil(t, appErr)
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeNotFound, true},
		{ErrCodeCompoundNotFound, true},
		{ErrCodeReactionNotFound, true},
		{ErrCodeTemplateNotFound, true},
		{ErrCodeDatabaseError, false},
		{ErrCodeInternal, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "x")
			assert.Equal(t, tc.want, IsNotFound(err))
		})
	}
	assert.False(t, IsNotFound(stderrors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestCodeThroughChain(t *testing.T) {
	inner := New(ErrCodeCacheError, "redis down")
	wrapped := fmt.Errorf("loading genome: %w", inner)
	assert.Equal(t, ErrCodeCacheError, Code(wrapped))
	assert.Equal(t, ErrCodeInternal, Code(stderrors.New("anonymous")))
}
