package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartialListAddFindRemove(t *testing.T) {
	p := NewPartialList(2)
	key := PartialKey{SourceAlias: 0x100, DestAlias: 0x200, MTI: 0x0AA}
	r := &Record{}

	require.True(t, p.Add(key, r))
	found, ok := p.FindFirst(key)
	require.True(t, ok)
	require.Same(t, r, found)

	require.True(t, p.Remove(r))
	_, ok = p.FindFirst(key)
	require.False(t, ok)
	require.True(t, p.Empty())
}

func TestPartialListFullReturnsFalse(t *testing.T) {
	p := NewPartialList(1)
	require.True(t, p.Add(PartialKey{MTI: 1}, &Record{}))
	require.False(t, p.Add(PartialKey{MTI: 2}, &Record{}))
}
