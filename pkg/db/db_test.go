package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactDSN(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "postgres://***@db:5432/herre", redactDSN("postgres://herre:s3cret@db:5432/herre"))
	assert.Equal(t, "postgres://db:5432/herre", redactDSN("postgres://db:5432/herre"))
	assert.Equal(t, "***@host", redactDSN("user:p@ss@host"))
}
