package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOwnerName(t *testing.T) {
	valid := []string{"alice", "maker", "lab-7", "ops.team", "abc"}
	for _, name := range valid {
		assert.NoError(t, ValidateOwnerName(name), name)
	}

	invalid := []string{
		"",
		"al",
		"Alice",
		"alice_bob",
		"alice/bob",
		"team#1",
		"plus+one",
		"with space",
		"-leading",
		"this-name-is-far-too-long-to-be-stamped-onto-every-device-topic-x",
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateOwnerName(name), ErrInvalidUsername, name)
	}
}
