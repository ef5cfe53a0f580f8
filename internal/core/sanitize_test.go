package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid json untouched", `{"a":1}`, `{"a":1}`},
		{"nan", `{"a":NaN}`, `{"a":null}`},
		{"infinities", `[Infinity,-Infinity,1]`, `[null,null,1]`},
		{"strings untouched", `{"s":"NaN and Infinity","v":NaN}`, `{"s":"NaN and Infinity","v":null}`},
		{"escaped quote in string", `{"s":"say \"NaN\"","v":NaN}`, `{"s":"say \"NaN\"","v":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeJSON([]byte(tt.in))
			assert.Equal(t, tt.want, string(got))
			assert.True(t, json.Valid(got))
		})
	}
}
