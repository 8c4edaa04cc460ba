package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectChannelID_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"u1", "u2"},
		{"zzz", "aaa"},
		{"9f2c", "9f2b"},
		// full-string ordering, not prefix ordering
		{"user_10", "user_1"},
	}

	for _, p := range pairs {
		ab, err := DirectChannelID(p[0], p[1])
		assert.NoError(t, err)
		ba, err := DirectChannelID(p[1], p[0])
		assert.NoError(t, err)
		assert.Equal(t, ab, ba)
	}
}

func TestDirectChannelID_Deterministic(t *testing.T) {
	id, err := DirectChannelID("bob", "alice")
	assert.NoError(t, err)
	assert.Equal(t, "alice_bob", id)
}

func TestDirectChannelID_EmptyID(t *testing.T) {
	_, err := DirectChannelID("", "bob")
	assert.Error(t, err)

	_, err = DirectChannelID("alice", "")
	assert.Error(t, err)
}
