package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pliu/roomchat/internal/objectid"
)

type sample struct {
	Name string        `cbor:"1,keyasint"`
	IDs  []objectid.ID `cbor:"2,keyasint"`
}

func TestMarshal_Deterministic(t *testing.T) {
	req := require.New(t)
	value := sample{Name: "room", IDs: []objectid.ID{objectid.New(), objectid.New()}}

	first, err := Marshal(value)
	req.NoError(err)
	second, err := Marshal(value)
	req.NoError(err)
	req.Equal(first, second)

	var decoded sample
	req.NoError(Unmarshal(first, &decoded))
	req.Equal(value, decoded)
}

func TestMarshal_MapKeysSorted(t *testing.T) {
	req := require.New(t)
	a, err := Marshal(map[string]int{"b": 2, "a": 1})
	req.NoError(err)
	b, err := Marshal(map[string]int{"a": 1, "b": 2})
	req.NoError(err)
	req.Equal(a, b)
}

func TestUnmarshal_RejectsGarbage(t *testing.T) {
	var decoded sample
	require.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &decoded))
}
