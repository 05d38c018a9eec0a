//go:build cgo && (windows || linux || darwin)

package hotkey

import (
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModsFromMask(t *testing.T) {
	assert.Equal(t, ModShift, modsFromMask(0x0001))
	assert.Equal(t, ModShift, modsFromMask(0x0010))
	assert.Equal(t, ModControl|ModShift, modsFromMask(0x0002|0x0010))
	assert.Equal(t, ModAlt|ModSuper, modsFromMask(0x0080|0x0004))
	assert.Equal(t, Modifiers(0), modsFromMask(0))
}

func TestKeyMatches(t *testing.T) {
	assert.True(t, keyMatches("c", hook.Event{Keychar: 'c'}))
	assert.True(t, keyMatches("c", hook.Event{Keychar: 'C'}))
	assert.False(t, keyMatches("c", hook.Event{Keychar: 'd'}))
	assert.True(t, keyMatches(",", hook.Event{Keychar: ','}))
}

func TestRebindSwapsBindings(t *testing.T) {
	l := NewListener(nil)
	pop, err := Parse("ctrl+shift+c")
	require.NoError(t, err)
	l.Rebind(map[string]*Binding{"pop": pop, "swap": nil})

	ev := hook.Event{Kind: hook.KeyDown, Mask: 0x0002 | 0x0001, Keychar: 'c'}
	assert.Equal(t, "pop", l.match(ev))

	l.Rebind(map[string]*Binding{})
	assert.Equal(t, "", l.match(ev))
}
