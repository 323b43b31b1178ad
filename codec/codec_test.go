package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreWireCompatible(t *testing.T) {
	type payload struct {
		ID     string    `json:"id"`
		Vector []float32 `json:"vector"`
	}
	in := payload{ID: "a", Vector: []float32{1, 0.5, -0.25}}

	b1, err := (JSON{}).Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, (GoJSON{}).Unmarshal(b1, &out))
	assert.Equal(t, in, out)

	b2, err := (GoJSON{}).Marshal(in)
	require.NoError(t, err)

	out = payload{}
	require.NoError(t, (JSON{}).Unmarshal(b2, &out))
	assert.Equal(t, in, out)
}
