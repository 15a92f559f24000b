package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func castSchema() *Schema {
	return &Schema{
		Table: "events",
		Casts: map[string]CastKind{
			"payload":    CastJSON,
			"starts_at":  CastDateTime,
			"active":     CastBool,
			"retries":    CastInt,
			"confidence": CastDouble,
		},
	}
}

func TestCastRoundTrip(t *testing.T) {
	moment := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name  string
		field string
		value any
		want  any
	}{
		{
			name:  "json map survives set and get",
			field: "payload",
			value: map[string]any{"a": float64(1)},
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "datetime from time value",
			field: "starts_at",
			value: moment,
			want:  moment,
		},
		{
			name:  "datetime from string",
			field: "starts_at",
			value: "2026-03-14T09:26:53Z",
			want:  moment,
		},
		{
			name:  "bool from native",
			field: "active",
			value: true,
			want:  true,
		},
		{
			name:  "int from string",
			field: "retries",
			value: "42",
			want:  int64(42),
		},
		{
			name:  "double from string",
			field: "confidence",
			value: "0.75",
			want:  0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := castSchema().New()
			e.Set(tt.field, tt.value)

			got, err := e.Get(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Setting the read-back value must be stable.
			e.Set(tt.field, got)
			again, err := e.Get(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, again)
		})
	}
}

func TestJSONCastEncodesEagerly(t *testing.T) {
	e := castSchema().New()
	e.Set("payload", map[string]any{"a": float64(1)})

	// The raw store must hold the encoded string, never the map.
	raw := e.RawAttributes()["payload"]
	assert.Equal(t, `{"a":1}`, raw)
}

func TestJSONCastEncodesTypedShapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "typed map", value: map[string]int{"a": 1}, want: `{"a":1}`},
		{name: "string map", value: map[string]string{"a": "b"}, want: `{"a":"b"}`},
		{name: "slice of maps", value: []map[string]any{{"a": float64(1)}}, want: `[{"a":1}]`},
		{name: "typed slice", value: []string{"x", "y"}, want: `["x","y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := castSchema().New()
			e.Set("payload", tt.value)

			raw, ok := e.RawAttributes()["payload"].(string)
			require.True(t, ok, "raw store must hold the encoded string, got %T", e.RawAttributes()["payload"])
			assert.JSONEq(t, tt.want, raw)

			got, err := e.Get("payload")
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestJSONCastStringPassesThrough(t *testing.T) {
	e := castSchema().New()
	e.Set("payload", `{"a":1}`)
	assert.Equal(t, `{"a":1}`, e.RawAttributes()["payload"])
}

func TestJSONCastMalformedPropagates(t *testing.T) {
	e := castSchema().New()
	e.SetRaw(map[string]any{"payload": "{not json"}, true)

	_, err := e.Get("payload")
	assert.ErrorIs(t, err, types.ErrDecode)
}

func TestDateTimeWriteNormalizes(t *testing.T) {
	e := castSchema().New()
	e.Set("starts_at", "2026-03-14 09:26:53")

	assert.Equal(t, "2026-03-14T09:26:53Z", e.RawAttributes()["starts_at"])
}

func TestBoolCastRepresentations(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{name: "native true", raw: true, want: true},
		{name: "int one", raw: int64(1), want: true},
		{name: "int other", raw: int64(2), want: false},
		{name: "string true upper", raw: "TRUE", want: true},
		{name: "string other", raw: "yes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := castSchema().New()
			e.SetRaw(map[string]any{"active": tt.raw}, true)

			got, err := e.Get("active")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericCastFallsBackToRaw(t *testing.T) {
	e := castSchema().New()
	e.SetRaw(map[string]any{"retries": "not-a-number"}, true)

	got, err := e.Get("retries")
	require.NoError(t, err)
	assert.Equal(t, "not-a-number", got)
}

func TestUncastFieldPassesThrough(t *testing.T) {
	e := castSchema().New()
	e.Set("name", "backup")

	got, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "backup", got)
}

func TestNilValueStaysNil(t *testing.T) {
	e := castSchema().New()
	e.Set("payload", nil)

	got, err := e.Get("payload")
	require.NoError(t, err)
	assert.Nil(t, got)
}
