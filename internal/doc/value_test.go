package doc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValue_Scalars(t *testing.T) {
	testCases := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null{}, `null`},
		{"string", String("hello"), `"hello"`},
		{"int", Int(42), `42`},
		{"float", Float(1.5), `1.5`},
		{"bool", Bool(true), `true`},
		{"time", NewTime(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)), `"2026-03-01T12:30:00.000000000Z"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MarshalValue(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalValue_ObjectSortedKeys(t *testing.T) {
	obj := Object{"zebra": Int(1), "alpha": Int(2), "mid": Int(3)}

	got, err := MarshalValue(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(got))
}

func TestMarshalValue_UnsetRejected(t *testing.T) {
	_, err := MarshalValue(Unset)
	require.Error(t, err)

	_, err = MarshalValue(Object{"field": Unset})
	require.Error(t, err)
}

func TestUnmarshalValue_TimeCoercion(t *testing.T) {
	// A string of exactly the timestamp layout decodes as a Time value.
	v, err := UnmarshalValue([]byte(`"2026-03-01T12:30:00.000000000Z"`))
	require.NoError(t, err)

	ts, ok := v.(Time)
	require.True(t, ok, "expected Time, got %T", v)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), ts.Std())

	// Same length but not a valid timestamp stays a string.
	v, err = UnmarshalValue([]byte(`"xxxx-03-01T12:30:00.000000000Z"`))
	require.NoError(t, err)
	assert.Equal(t, String("xxxx-03-01T12:30:00.000000000Z"), v)

	// Shorter timestamps are not coerced.
	v, err = UnmarshalValue([]byte(`"2026-03-01T12:30:00Z"`))
	require.NoError(t, err)
	assert.Equal(t, String("2026-03-01T12:30:00Z"), v)
}

func TestUnmarshalValue_NumberCoercion(t *testing.T) {
	v, err := UnmarshalValue([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, Int(42), v)

	v, err = UnmarshalValue([]byte(`1.5`))
	require.NoError(t, err)
	assert.Equal(t, Float(1.5), v)
}

func TestUnmarshalValue_RoundTrip(t *testing.T) {
	original := Object{
		"name":    String("widget"),
		"count":   Int(7),
		"ratio":   Float(0.25),
		"active":  Bool(true),
		"deleted": Null{},
		"tags":    Array{String("a"), String("b")},
		"nested":  Object{"depth": Int(2)},
		"seen":    NewTime(time.Date(2026, 1, 2, 3, 4, 5, 600000000, time.UTC)),
	}

	raw, err := MarshalValue(original)
	require.NoError(t, err)

	decoded, err := UnmarshalValue(raw)
	require.NoError(t, err)
	assert.True(t, Equal(original, decoded), "round trip changed the value: %s", raw)
}

func TestEqual(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"int vs float never equal", Int(1), Float(1), false},
		{"time by instant", NewTime(ts), NewTime(ts.In(time.FixedZone("X", 3600))), true},
		{"nulls equal", Null{}, Null{}, true},
		{"null vs nil", Null{}, nil, false},
		{"arrays ordered", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{
			"key equals its object form",
			NewKey(KeyField{Name: "_id", Value: String("a")}, KeyField{Name: "updated_at", Value: NewTime(ts)}),
			Object{"_id": String("a"), "updated_at": NewTime(ts)},
			true,
		},
		{
			"objects compare by content",
			Object{"x": Int(1)},
			Object{"x": Int(1), "y": Int(2)},
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Equal(tc.a, tc.b))
			assert.Equal(t, tc.want, Equal(tc.b, tc.a))
		})
	}
}

func TestCloneValue_Independence(t *testing.T) {
	original := Object{"nested": Object{"n": Int(1)}, "arr": Array{Int(1)}}

	clone := CloneValue(original).(Object)
	clone["nested"].(Object)["n"] = Int(99)
	clone["arr"].(Array)[0] = Int(99)

	assert.Equal(t, Int(1), original["nested"].(Object)["n"])
	assert.Equal(t, Int(1), original["arr"].(Array)[0])
}

func TestFromGo(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	v, err := FromGo(map[string]any{
		"name":  "alice",
		"age":   float64(30), // whole float, as JSON decoding produces
		"score": 99.5,
		"ok":    true,
		"gone":  nil,
		"tags":  []any{"x", "y"},
		"since": ts,
	})
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("alice"), obj["name"])
	assert.Equal(t, Int(30), obj["age"])
	assert.Equal(t, Float(99.5), obj["score"])
	assert.Equal(t, Bool(true), obj["ok"])
	assert.Equal(t, Null{}, obj["gone"])
	assert.Equal(t, Array{String("x"), String("y")}, obj["tags"])
	assert.Equal(t, NewTime(ts), obj["since"])
}

func TestFromGo_UnsupportedType(t *testing.T) {
	_, err := FromGo(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}
