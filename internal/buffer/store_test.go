package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreTierPromotion(t *testing.T) {
	s := NewStore(2)

	r, ok := s.Allocate(4)
	require.True(t, ok)
	require.Equal(t, 8, r.Capacity())

	r, ok = s.Allocate(40)
	require.True(t, ok)
	require.Equal(t, 72, r.Capacity())

	r, ok = s.Allocate(200)
	require.True(t, ok)
	require.Equal(t, 253, r.Capacity())

	_, ok = s.Allocate(300)
	require.False(t, ok, "no tier is large enough")
}

func TestStoreExhaustion(t *testing.T) {
	s := NewStore(1)
	r1, ok := s.Allocate(4)
	require.True(t, ok)

	_, ok = s.Allocate(4)
	require.False(t, ok, "tier exhausted")

	s.Free(r1)
	_, ok = s.Allocate(4)
	require.True(t, ok, "freed record becomes available again")
}

func TestRefCountInvariant(t *testing.T) {
	s := NewStore(1)
	r, ok := s.Allocate(4)
	require.True(t, ok)
	require.True(t, r.Allocated())
	require.Equal(t, 1, r.RefCount())

	s.Retain(r)
	require.Equal(t, 2, r.RefCount())

	s.Free(r)
	require.True(t, r.Allocated(), "still referenced once")

	s.Free(r)
	require.False(t, r.Allocated())
	require.Equal(t, 0, r.RefCount())
}

func TestHighWaterMark(t *testing.T) {
	s := NewStore(3)
	a, _ := s.Allocate(4)
	b, _ := s.Allocate(4)
	require.Equal(t, 2, s.HighWaterMark(TierBasic))
	s.Free(a)
	s.Free(b)
	require.Equal(t, 0, s.AllocatedCount(TierBasic))
	require.Equal(t, 2, s.HighWaterMark(TierBasic), "high water mark never decreases")
}

func TestAppendPayloadOverflow(t *testing.T) {
	s := NewStore(1)
	r, _ := s.Allocate(4)
	require.True(t, r.AppendPayload(1, 2, 3, 4, 5, 6, 7, 8))
	require.False(t, r.AppendPayload(9), "tier capacity is fixed at 8 bytes")
}
