package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipanski/flycheap/internal/domain"
)

func TestParseInstant_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"2016-03-28T21:35+0200",
		"2016-03-29T00:45+0300",
		"2016-01-20T17:48-0500",
		"2020-12-31T23:59+0000",
		"2019-06-01T08:15+0530",
	} {
		t.Run(s, func(t *testing.T) {
			got, err := domain.ParseInstant(s)

			require.NoError(t, err)
			assert.Equal(t, s, got.Format())
		})
	}
}

func TestParseInstant_OffsetAndAbsoluteTime(t *testing.T) {
	got, err := domain.ParseInstant("2016-03-28T21:35+0200")

	require.NoError(t, err)
	assert.Equal(t, 2*60*60, got.Offset)
	assert.True(t, got.Time.Equal(time.Date(2016, 3, 28, 19, 35, 0, 0, time.UTC)))
	assert.Equal(t, int64(1459193700), got.Unix())
}

func TestParseInstant_ColonOffset(t *testing.T) {
	got, err := domain.ParseInstant("2016-01-20T17:48-05:00")

	require.NoError(t, err)
	assert.Equal(t, -5*60*60, got.Offset)
	assert.Equal(t, "2016-01-20T17:48-0500", got.Format())
}

func TestParseInstant_FormatIgnoresProcessZone(t *testing.T) {
	// The recorded offset must win over whatever zone the caller is in.
	got, err := domain.ParseInstant("2016-03-29T00:45+0300")
	require.NoError(t, err)

	shifted := domain.NewInstant(got.Time.In(time.UTC), got.Offset)

	assert.Equal(t, "2016-03-29T00:45+0300", shifted.Format())
}

func TestInstant_FormatIn(t *testing.T) {
	got, err := domain.ParseInstant("2016-03-29T00:45+0300")
	require.NoError(t, err)

	assert.Equal(t, "2016-03-28T21:45+0000", got.FormatIn(0))
	assert.Equal(t, 3*60*60, got.Offset, "FormatIn must not change the stored offset")
}

func TestInstantFromUnix(t *testing.T) {
	parsed, err := domain.ParseInstant("2016-04-03T06:30+0300")
	require.NoError(t, err)

	rebuilt := domain.InstantFromUnix(parsed.Unix(), parsed.Offset)

	assert.True(t, parsed.Equal(rebuilt))
	assert.Equal(t, "2016-04-03T06:30+0300", rebuilt.Format())
}

func TestParseInstant_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"2016-03-28",
		"2016-03-28T21:35",
		"2016-03-28T21:35:00+0200",
		"2016-13-28T21:35+0200",
		"2016-03-28T25:35+0200",
		"2016-03-28T21:35+02",
		"2016-03-28T21:35Z",
		"not a time",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := domain.ParseInstant(input)

			require.Error(t, err)
			var pe *domain.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, domain.KindTime, pe.Kind)
			assert.Equal(t, input, pe.Input)
		})
	}
}
