package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
		{"nested", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestLooseAccessors(t *testing.T) {
	t.Parallel()
	l, err := decodeLoose(`{"n": 3.5, "s": "42", "pct": "80%", "bad": "high", "t": "  hi  ", "obj": {"x": 1}}`)
	require.NoError(t, err)

	n, ok := l.number("n")
	assert.True(t, ok)
	assert.InDelta(t, 3.5, n, 0.0001)

	n, ok = l.number("s")
	assert.True(t, ok)
	assert.InDelta(t, 42, n, 0.0001)

	n, ok = l.number("pct")
	assert.True(t, ok)
	assert.InDelta(t, 80, n, 0.0001)

	_, ok = l.number("bad")
	assert.False(t, ok)
	_, ok = l.number("missing")
	assert.False(t, ok)

	assert.Equal(t, "hi", l.text("t"))
	assert.Equal(t, "", l.text("obj"))
	assert.Equal(t, "", l.text("n"))
}

func TestDecodeLoose_Errors(t *testing.T) {
	t.Parallel()
	_, err := decodeLoose("not json")
	assert.Error(t, err)

	_, err = decodeLoose("null")
	assert.Error(t, err)
}
