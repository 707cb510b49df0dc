package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsConnectErrors(t *testing.T) {
	t.Setenv("MONGODB_URI", "bogus://localhost")

	err := run("", false, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to MongoDB")
}
