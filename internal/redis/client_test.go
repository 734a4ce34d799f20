package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_CarryDatabaseAndTLS(t *testing.T) {
	ro := Options{Addr: "cache.internal:6380", Username: "console", Password: "s3cret", DB: 2, TLS: true}.redisOptions()
	assert.Equal(t, 2, ro.DB)
	assert.Equal(t, "console", ro.Username)
	require.NotNil(t, ro.TLSConfig)
	assert.Equal(t, "cache.internal", ro.TLSConfig.ServerName)

	plain := Options{Addr: "localhost:6379"}.redisOptions()
	assert.Zero(t, plain.DB)
	assert.Nil(t, plain.TLSConfig)
}
