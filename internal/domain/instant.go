package domain

import (
	"time"
)

const (
	// InstantLayout is the canonical wire layout: minute precision, offset without colon.
	InstantLayout = "2006-01-02T15:04-0700"

	// instantLayoutColon is what the QPX payload actually carries.
	instantLayoutColon = "2006-01-02T15:04-07:00"
)

// Instant is an absolute point in time together with the UTC offset (in
// seconds) it was originally expressed in. Both are needed: the same instant
// renders to different wall-clock strings under different offsets, and each
// flight leg is qualified by its own airport's offset.
type Instant struct {
	Time   time.Time
	Offset int
}

// ParseInstant parses "YYYY-MM-DDTHH:MM±HHMM". The colon form of the offset
// ("+02:00") is accepted too. Returns a *ParseError of KindTime on failure.
func ParseInstant(s string) (Instant, error) {
	t, err := time.Parse(InstantLayout, s)
	if err != nil {
		t, err = time.Parse(instantLayoutColon, s)
	}
	if err != nil {
		return Instant{}, &ParseError{Kind: KindTime, Input: s}
	}

	_, offset := t.Zone()
	return NewInstant(t, offset), nil
}

// NewInstant builds an Instant for t expressed under offset seconds east of UTC.
func NewInstant(t time.Time, offset int) Instant {
	return Instant{Time: t.In(time.FixedZone("", offset)), Offset: offset}
}

// InstantFromUnix rebuilds an Instant from its persisted form.
func InstantFromUnix(sec int64, offset int) Instant {
	return NewInstant(time.Unix(sec, 0), offset)
}

// Unix returns the absolute instant as epoch seconds.
func (i Instant) Unix() int64 {
	return i.Time.Unix()
}

// Format renders the instant in its own recorded offset, regardless of the
// process time zone.
func (i Instant) Format() string {
	return i.FormatIn(i.Offset)
}

// FormatIn renders the instant under a caller-chosen offset. The stored offset
// is not changed.
func (i Instant) FormatIn(offset int) string {
	return i.Time.In(time.FixedZone("", offset)).Format(InstantLayout)
}

// Equal reports whether both the absolute time and the recorded offset match.
func (i Instant) Equal(o Instant) bool {
	return i.Time.Equal(o.Time) && i.Offset == o.Offset
}
