package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_UnmarshalKeepsKind(t *testing.T) {
	tests := []struct {
		in      string
		str     string
		value   any
		numeric bool
	}{
		{`12346`, "12346", 12346.0, true},
		{`12346.0`, "12346", 12346.0, true},
		{`"C-17"`, "C-17", "C-17", false},
		{`"12346"`, "12346", "12346", false},
		{`null`, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var k Key
			require.NoError(t, json.Unmarshal([]byte(tt.in), &k))
			assert.Equal(t, tt.str, k.String())
			assert.Equal(t, tt.value, k.Value())
		})
	}
}

func TestKey_RoundTripInsideRow(t *testing.T) {
	var rows []CLVRow
	require.NoError(t, json.Unmarshal([]byte(`[{"CustomerID":17850,"CLV":1},{"CustomerID":"X1","CLV":2}]`), &rows))

	out, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"CustomerID":17850,"CLV":1,"recommendation":""},{"CustomerID":"X1","CLV":2,"recommendation":""}]`, string(out))
}

func TestKey_IsZero(t *testing.T) {
	assert.True(t, Key{}.IsZero())
	assert.False(t, NumberKey(0).IsZero())
	assert.False(t, StringKey("a").IsZero())
}
