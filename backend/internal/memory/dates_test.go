package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var parseNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func TestExtractDate_ISO(t *testing.T) {
	got, ok := ExtractDate("Midterm exam on 2026-03-05", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC), got)
}

func TestExtractDate_MonthDay(t *testing.T) {
	got, ok := ExtractDate("field trip on March 5th", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC), got)
}

func TestExtractDate_MonthDayWithYear(t *testing.T) {
	got, ok := ExtractDate("interview on Jan 20, 2027", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2027, time.January, 20, 9, 0, 0, 0, time.UTC), got)
}

func TestExtractDate_DayMonth(t *testing.T) {
	got, ok := ExtractDate("assignment due 12 February", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.February, 12, 9, 0, 0, 0, time.UTC), got)
}

func TestExtractDate_YearRollsForwardWhenPassed(t *testing.T) {
	// January 2 has already passed relative to January 15
	got, ok := ExtractDate("meeting on January 2", parseNow)
	assert.True(t, ok)
	assert.Equal(t, 2027, got.Year())
}

func TestExtractDate_Relative(t *testing.T) {
	got, ok := ExtractDate("dentist appointment tomorrow", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.January, 16, 9, 0, 0, 0, time.UTC), got)

	got, ok = ExtractDate("exam next week", parseNow)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.January, 22, 9, 0, 0, 0, time.UTC), got)
}

func TestExtractDate_NoDate(t *testing.T) {
	_, ok := ExtractDate("remember to buy milk", parseNow)
	assert.False(t, ok)
}

func TestExtractDate_RejectsInvalidDay(t *testing.T) {
	_, ok := ExtractDate("party on 2026-02-31", parseNow)
	assert.False(t, ok)
}
