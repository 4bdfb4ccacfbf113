package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsInt(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"json number", json.Number("42"), 42, false},
		{"integral float number", json.Number("3.0"), 3, false},
		{"fractional json number", json.Number("3.5"), 0, true},
		{"float64", float64(7), 7, false},
		{"fractional float64", 7.25, 0, true},
		{"exponent beyond int64", json.Number("1e30"), 0, true},
		{"negative exponent beyond int64", json.Number("-1e19"), 0, true},
		{"float64 beyond int64", 9.3e18, 0, true},
		{"exponent within int64", json.Number("1e3"), 1000, false},
		{"numeric string", " 12 ", 12, false},
		{"garbage string", "twelve", 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsInt(tt.in, "field")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsStrictIntRejectsStrings(t *testing.T) {
	_, err := AsStrictInt("15", "distance_pips")
	assert.ErrorIs(t, err, ErrValidationFailed)

	v, err := AsStrictInt(json.Number("15"), "distance_pips")
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)
}

func TestAsFloatAndString(t *testing.T) {
	f, err := AsFloat("1.2345", "open_price")
	require.NoError(t, err)
	assert.InDelta(t, 1.2345, f, 1e-9)

	_, err = AsFloat(map[string]any{}, "open_price")
	assert.ErrorIs(t, err, ErrValidationFailed)

	s, err := AsString(json.Number("10"), "comment")
	require.NoError(t, err)
	assert.Equal(t, "10", s)

	_, err = AsStrictString(json.Number("10"), "text")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAsTicket(t *testing.T) {
	ticket, err := AsTicket("123456", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), ticket)

	_, err = AsTicket(nil, "id")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = AsTicket(json.Number("-4"), "id")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestMessageStripsSentinel(t *testing.T) {
	err := Failf("%s must be a boolean", "enabled")
	assert.Equal(t, "enabled must be a boolean", Message(err))
	assert.Equal(t, "enabled must be a boolean", Message(fmt.Errorf("patch config: %w", err)))
}

func TestCleanFreeText(t *testing.T) {
	assert.Equal(t, "Breakout confirmed", CleanFreeText("  <b>Breakout</b> confirmed "))
	assert.Equal(t, "", CleanFreeText("<script>alert(1)</script>"))
	assert.Equal(t, `l'entrée & SL < 10 "pips"`, CleanFreeText(` l'entrée & SL < 10 "pips" `))
	assert.Equal(t, "gap up", CleanFreeText("<i>gap</i> up"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\x00\nc\x07"))
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(5, "satisfaction", 0, 5))
	assert.ErrorIs(t, ValidateIntRange(7, "satisfaction", 0, 5), ErrValidationFailed)
}
