package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch: %w", NewError(CategoryTransient, "search", "request failed", cause))

	assert.True(t, IsRetryable(err))
	assert.Equal(t, CategoryTransient, CategoryOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "registry search [transient]: request failed: connection reset")

	for _, c := range []Category{CategoryAuth, CategoryParse, CategoryNotFound} {
		assert.False(t, NewError(c, "op", "msg", nil).Retryable, c)
	}

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, Category(""), CategoryOf(errors.New("plain")))
}
