package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "0.0000", Quantity(0).String())
	assert.Equal(t, "1.5000", NewQuantityFromFloat64(1.5).String())
	assert.Equal(t, "-3.0000", NewQuantityFromFloat64(-3).String())
	assert.Equal(t, "0.0100", Epsilon.String())
	assert.Equal(t, "1700.1234", Quantity(17001234).String())
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(123.4567)

	raw, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "123.4567", string(raw))

	var back Quantity
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, q, back)
}

func TestQuantityUnmarshalForms(t *testing.T) {
	cases := []struct {
		in   string
		want Quantity
	}{
		{`12.5`, NewQuantityFromFloat64(12.5)},
		{`"12.5"`, NewQuantityFromFloat64(12.5)},
		{`-0.25`, NewQuantityFromFloat64(-0.25)},
		{`100`, NewQuantityFromFloat64(100)},
		{`0.12349`, Quantity(1234)}, // extra digits truncated, not rounded
		{`null`, 0},
	}
	for _, tc := range cases {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(tc.in), &q), tc.in)
		assert.Equal(t, tc.want, q, tc.in)
	}

	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
}

func TestQuantityWithinEpsilon(t *testing.T) {
	a := NewQuantityFromFloat64(100)
	assert.True(t, a.WithinEpsilon(NewQuantityFromFloat64(100.01)))
	assert.False(t, a.WithinEpsilon(NewQuantityFromFloat64(100.02)))
}
