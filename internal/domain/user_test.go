package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never changed", func(t *testing.T) {
		u := &User{}
		assert.False(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("changed before issue", func(t *testing.T) {
		changed := issued.Add(-time.Minute)
		u := &User{PasswordChangedAt: &changed}
		assert.False(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("changed within the same second", func(t *testing.T) {
		changed := issued.Add(500 * time.Millisecond)
		u := &User{PasswordChangedAt: &changed}
		assert.False(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("changed after issue", func(t *testing.T) {
		changed := issued.Add(2 * time.Second)
		u := &User{PasswordChangedAt: &changed}
		assert.True(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("nil user", func(t *testing.T) {
		var u *User
		assert.False(t, u.ChangedPasswordAfter(issued))
	})
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleEditor.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestHasRole(t *testing.T) {
	u := &User{Role: RoleEditor}
	assert.True(t, u.HasRole(RoleAdmin, RoleEditor))
	assert.False(t, u.HasRole(RoleAdmin))
}
