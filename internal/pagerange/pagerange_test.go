package pagerange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     models.PageRange
		count  int
		want   models.PageRange
		wantOK bool
	}{
		{"inside", models.PageRange{Start: 2, End: 4}, 5, models.PageRange{Start: 2, End: 4}, true},
		{"end clamped", models.PageRange{Start: 3, End: 10}, 5, models.PageRange{Start: 3, End: 5}, true},
		{"start clamped", models.PageRange{Start: -2, End: 2}, 5, models.PageRange{Start: 1, End: 2}, true},
		{"entirely after", models.PageRange{Start: 10, End: 20}, 5, models.PageRange{}, false},
		{"reversed", models.PageRange{Start: 4, End: 2}, 5, models.PageRange{}, false},
		{"empty document", models.PageRange{Start: 1, End: 1}, 0, models.PageRange{}, false},
		{"open end", models.PageRange{Start: 2, End: Last}, 5, models.PageRange{Start: 2, End: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in, tt.count)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(models.PageRange{Start: 3, End: 10}, 5))
	assert.Zero(t, Count(models.PageRange{Start: 10, End: 20}, 5))
}

func TestToPageIndices_KeepsOrderAndDuplicates(t *testing.T) {
	ranges := []models.PageRange{{Start: 4, End: 5}, {Start: 1, End: 2}, {Start: 2, End: 3}, {Start: 9, End: 12}}
	assert.Equal(t, []int{3, 4, 0, 1, 1, 2}, ToPageIndices(ranges, 5))
}

func TestSingletons(t *testing.T) {
	assert.Equal(t, []models.PageRange{{Start: 1, End: 1}, {Start: 2, End: 2}, {Start: 3, End: 3}}, Singletons(3))
	assert.Empty(t, Singletons(0))
}

func TestValidateRemoval(t *testing.T) {
	require.NoError(t, ValidateRemoval([]int{1, 3}, 4))

	err := ValidateRemoval([]int{1, 2, 3}, 3)
	var empty *models.WouldEmptyDocumentError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 3, empty.Selected)
	assert.Equal(t, 3, empty.PageCount)

	// duplicates do not count twice
	require.NoError(t, ValidateRemoval([]int{2, 2, 2}, 3))

	assert.ErrorIs(t, ValidateRemoval([]int{0}, 3), models.ErrPageOutOfRange)
	assert.ErrorIs(t, ValidateRemoval([]int{4}, 3), models.ErrPageOutOfRange)
	assert.ErrorIs(t, ValidateRemoval(nil, 3), models.ErrEmptySelection)
}

func TestComplement(t *testing.T) {
	assert.Equal(t, []int{0, 2, 4}, Complement([]int{2, 4}, 5))
	assert.Equal(t, []int{0, 1, 2}, Complement(nil, 3))
}

func TestParse(t *testing.T) {
	got, err := Parse(" 1-3, 5 ,8-, -2")
	require.NoError(t, err)
	assert.Equal(t, []models.PageRange{
		{Start: 1, End: 3},
		{Start: 5, End: 5},
		{Start: 8, End: Last},
		{Start: 1, End: 2},
	}, got)

	for _, bad := range []string{"", "a", "3-1", "0", "1-x", " , "} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, models.ErrInvalidRange, bad)
	}
}

func TestParsePages(t *testing.T) {
	got, err := ParsePages("5,1-2,2,7-", 8)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5, 7, 8}, got)
}

func TestParsePages_RejectsPagesBeyondCount(t *testing.T) {
	for _, sel := range []string{"1-2000000000", "4", "2,9-10", "5-"} {
		_, err := ParsePages(sel, 3)
		assert.ErrorIs(t, err, models.ErrPageOutOfRange, sel)
	}
}
