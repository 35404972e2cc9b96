package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowlist(t *testing.T) {
	a := NewAllowlist([]string{"Alice", " @bob ", "", "@"})
	assert.Equal(t, 2, a.Len())

	assert.True(t, a.IsPrivileged("alice"))
	assert.True(t, a.IsPrivileged("ALICE"))
	assert.True(t, a.IsPrivileged("@Bob"))
	assert.False(t, a.IsPrivileged("carol"))
	assert.False(t, a.IsPrivileged(""))
}

func TestAllowlist_Empty(t *testing.T) {
	var a Allowlist
	assert.False(t, a.IsPrivileged("alice"))
}
