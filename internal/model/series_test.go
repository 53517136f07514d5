package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestNormalizedSeries_Sort_StrictlyAscendingDates(t *testing.T) {
	s := &NormalizedSeries{Points: []NormalizedPoint{
		{Date: "2020-03-01", Value: ptr(3)},
		{Date: "2020-01-01", Value: ptr(1)},
		{Date: "2020-02-01", Value: ptr(2)},
	}}

	warn := s.Sort()
	assert.Empty(t, warn)

	pts := s.Points
	for i := 1; i < len(pts); i++ {
		assert.Less(t, pts[i-1].Date, pts[i].Date, "dates must be strictly ascending after Sort")
	}
}

func TestNormalizedSeries_Sort_DuplicateDatesLastWins(t *testing.T) {
	s := &NormalizedSeries{Points: []NormalizedPoint{
		{Date: "2020-01-01", Value: ptr(1)},
		{Date: "2020-01-01", Value: ptr(99)}, // revised observation for the same date
		{Date: "2020-02-01", Value: ptr(2)},
	}}

	warn := s.Sort()
	assert.NotEmpty(t, warn, "collapsing duplicate dates must emit a warning")
	pts := s.Points
	assert.Len(t, pts, 2)
	assert.Equal(t, 99.0, *pts[0].Value, "last-wins: the later duplicate observation must survive")
}

func TestNormalizedSeries_Sort_SinglePointIsValid(t *testing.T) {
	s := &NormalizedSeries{Points: []NormalizedPoint{{Date: "2020-01-01", Value: ptr(1)}}}
	warn := s.Sort()
	assert.Empty(t, warn)
	assert.Len(t, s.Points, 1)
}

func TestNormalizedSeries_Sort_EmptyIsValid(t *testing.T) {
	s := &NormalizedSeries{}
	warn := s.Sort()
	assert.Empty(t, warn)
	assert.Empty(t, s.Points)
}
