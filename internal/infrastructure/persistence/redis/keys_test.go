package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeys(t *testing.T) {
	assert.Equal(t, "ratelimit:http:10.0.0.1", BuildRateLimitKey("http", "10.0.0.1"))
	assert.Equal(t, "bulkjob:abc", BuildJobCacheKey("abc"))
}
