package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("dial tcp: timeout")

	assert.Equal(t, KindExternalProvider, KindOf(ExternalProvider(base, "capture failed")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", NotFound("asset not found"))))
	assert.Equal(t, KindUnknown, KindOf(base))
	assert.False(t, Is(nil, KindStorage))
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("connection reset")
	err := Storage(base, "failed to record purchase")

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "failed to record purchase")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresCodes(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Asset not found", MessageOf(NotFound("Asset not found"), "oops"))
	assert.Equal(t, "oops", MessageOf(errors.New("raw"), "oops"))
}
