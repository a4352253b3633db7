package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		cursor Cursor
	}{
		{name: "all nil", cursor: Cursor{}},
		{name: "all set", cursor: Cursor{WindowStart: f(1700000000.123456), WindowEnd: f(1700000060.5), Offset: i(42)}},
		{name: "advanced window", cursor: Advance(1700000060.25)},
		{name: "resumed window", cursor: Resume(1700000000, 1700000060, 3)},
		{name: "only offset", cursor: Cursor{Offset: i(0)}},
		{name: "only end", cursor: Cursor{WindowEnd: f(12.75)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.cursor)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.True(t, tt.cursor.Equal(decoded), "want %s, got %s", tt.cursor, decoded)
		})
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	inputs := []string{
		"garbage",
		"{",
		"[1, 2]",
		`"a string"`,
		`{"window_start": "yesterday"}`,
		`{"page_offset": -1}`,
		`{"window_start": 20, "window_end": 10}`,
		`{"window_start": -5}`,
		`{} {}`,
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			_, err := Decode(raw)
			require.Error(t, err)
			assert.True(t, IsInvalid(err))
		})
	}
}

func TestDecodeOrDefault(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lookback := time.Minute
	want := Default(now, lookback)

	t.Run("empty input", func(t *testing.T) {
		c, err := DecodeOrDefault("", now, lookback)
		require.NoError(t, err)
		assert.True(t, want.Equal(c))
	})

	t.Run("garbage input never fails", func(t *testing.T) {
		c, err := DecodeOrDefault("\x00not-json", now, lookback)
		assert.True(t, IsInvalid(err))
		assert.True(t, want.Equal(c))
	})

	t.Run("valid input is kept", func(t *testing.T) {
		stored := Resume(100, 200, 7)
		raw, err := Encode(stored)
		require.NoError(t, err)

		c, err := DecodeOrDefault(raw, now, lookback)
		require.NoError(t, err)
		assert.True(t, stored.Equal(c))
	})
}

func TestDefault(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := Default(now, time.Minute)

	require.NotNil(t, c.WindowStart)
	require.NotNil(t, c.WindowEnd)
	require.NotNil(t, c.Offset)
	assert.Equal(t, now.Add(-time.Minute), Time(*c.WindowStart))
	assert.Equal(t, now, Time(*c.WindowEnd))
	assert.Equal(t, 0, *c.Offset)
}

func TestBounds(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil fields resolve against now", func(t *testing.T) {
		start, end, offset := Cursor{}.Bounds(now, time.Minute)
		assert.Equal(t, *Timestamp(now.Add(-time.Minute)), start)
		assert.Equal(t, *Timestamp(now), end)
		assert.Equal(t, 0, offset)
	})

	t.Run("advanced cursor keeps its start", func(t *testing.T) {
		start, end, offset := Advance(500).Bounds(now, time.Minute)
		assert.Equal(t, 500.0, start)
		assert.Equal(t, *Timestamp(now), end)
		assert.Equal(t, 0, offset)
	})

	t.Run("resumed cursor keeps everything", func(t *testing.T) {
		start, end, offset := Resume(10, 20, 4).Bounds(now, time.Minute)
		assert.Equal(t, 10.0, start)
		assert.Equal(t, 20.0, end)
		assert.Equal(t, 4, offset)
	})

	t.Run("clock behind start clamps end", func(t *testing.T) {
		ahead := *Timestamp(now.Add(5 * time.Second))
		start, end, _ := Advance(ahead).Bounds(now, time.Minute)
		assert.Equal(t, ahead, start)
		assert.Equal(t, ahead, end)
	})
}

func TestTimestampTime_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	assert.Equal(t, now, Time(*Timestamp(now)))
}

func TestEqual_DistinguishesNil(t *testing.T) {
	assert.False(t, Cursor{Offset: i(0)}.Equal(Cursor{}))
	assert.False(t, Cursor{WindowEnd: f(1)}.Equal(Cursor{WindowEnd: f(2)}))
	assert.True(t, Cursor{}.Equal(Cursor{}))
}
