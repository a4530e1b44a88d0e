package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisRejectsBadURL(t *testing.T) {
	rdb, err := NewRedis("http://localhost:6379", 4)
	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "parse redis url")
}
