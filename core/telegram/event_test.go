package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolesResolution(t *testing.T) {
	roles := Roles{AdminIDs: []int64{1}, StaffIDs: []int64{2}}

	assert.True(t, roles.isSuper(1))
	assert.False(t, roles.isSuper(2))
	assert.True(t, roles.isStaff(1), "admins are staff too")
	assert.True(t, roles.isStaff(2))
	assert.False(t, roles.isStaff(3))
}

func TestCommandTarget(t *testing.T) {
	p := NewProcessor(nil, Roles{})
	p.MapCommand("/people", "PERSON")

	state, ok := p.commandTarget("/start")
	assert.True(t, ok)
	assert.Equal(t, "START", state)

	state, ok = p.commandTarget("/people")
	assert.True(t, ok)
	assert.Equal(t, "PERSON", state)

	// Bot-suffixed and argument forms resolve to the bare command.
	state, ok = p.commandTarget("/start@my_bot")
	assert.True(t, ok)
	assert.Equal(t, "START", state)

	state, ok = p.commandTarget("/start now")
	assert.True(t, ok)
	assert.Equal(t, "START", state)

	_, ok = p.commandTarget("/unknown")
	assert.False(t, ok)
	_, ok = p.commandTarget("plain text")
	assert.False(t, ok)
}
