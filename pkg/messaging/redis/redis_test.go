package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "http://localhost:6379"}, nil)
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}
