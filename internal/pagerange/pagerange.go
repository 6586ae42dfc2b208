// Package pagerange validates and expands user page selections against the
// page count of a concrete document.
package pagerange

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Last can be used as a range end meaning "through the last page".
const Last = math.MaxInt32

// Normalize clamps r into [1, pageCount]. The boolean is false when nothing is
// left after clamping; an empty range is not an error.
func Normalize(r models.PageRange, pageCount int) (models.PageRange, bool) {
	if pageCount <= 0 {
		return models.PageRange{}, false
	}
	start := max(r.Start, 1)
	end := min(r.End, pageCount)
	if start > end {
		return models.PageRange{}, false
	}
	return models.PageRange{Start: start, End: end}, true
}

// Count returns how many pages r covers in a document of pageCount pages.
func Count(r models.PageRange, pageCount int) int {
	n, ok := Normalize(r, pageCount)
	if !ok {
		return 0
	}
	return n.End - n.Start + 1
}

// ToPageIndices expands ranges into 0-indexed page positions in range order.
// Pages covered by more than one range appear once per range.
func ToPageIndices(ranges []models.PageRange, pageCount int) []int {
	var indices []int
	for _, r := range ranges {
		n, ok := Normalize(r, pageCount)
		if !ok {
			continue
		}
		for p := n.Start; p <= n.End; p++ {
			indices = append(indices, p-1)
		}
	}
	return indices
}

// Singletons returns one single-page range per page.
func Singletons(pageCount int) []models.PageRange {
	ranges := make([]models.PageRange, 0, pageCount)
	for p := 1; p <= pageCount; p++ {
		ranges = append(ranges, models.PageRange{Start: p, End: p})
	}
	return ranges
}

// ValidateRemoval checks that removing the 1-indexed pages leaves at least one page.
func ValidateRemoval(pages []int, pageCount int) error {
	if len(pages) == 0 {
		return models.ErrEmptySelection
	}
	distinct := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		if p < 1 || p > pageCount {
			return fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, p, pageCount)
		}
		distinct[p] = struct{}{}
	}
	if len(distinct) >= pageCount {
		return &models.WouldEmptyDocumentError{Selected: len(distinct), PageCount: pageCount}
	}
	return nil
}

// Complement returns the 0-indexed pages not listed in the 1-indexed removal
// set, in ascending order.
func Complement(remove []int, pageCount int) []int {
	excluded := make(map[int]struct{}, len(remove))
	for _, p := range remove {
		excluded[p-1] = struct{}{}
	}
	kept := make([]int, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if _, ok := excluded[i]; !ok {
			kept = append(kept, i)
		}
	}
	return kept
}

// Parse reads a comma separated selection such as "1-3, 5, 8-". An open end
// means "through the last page"; an open start means "from the first page".
func Parse(s string) ([]models.PageRange, error) {
	var ranges []models.PageRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parsePart(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: %q selects no pages", models.ErrInvalidRange, s)
	}
	return ranges, nil
}

func parsePart(part string) (models.PageRange, error) {
	from, to, isSpan := strings.Cut(part, "-")
	if !isSpan {
		p, err := parsePage(from)
		if err != nil {
			return models.PageRange{}, err
		}
		return models.PageRange{Start: p, End: p}, nil
	}

	r := models.PageRange{Start: 1, End: Last}
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if r.Start, err = parsePage(from); err != nil {
			return models.PageRange{}, err
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if r.End, err = parsePage(to); err != nil {
			return models.PageRange{}, err
		}
	}
	if r.Start > r.End {
		return models.PageRange{}, fmt.Errorf("%w: %q ends before it starts", models.ErrInvalidRange, part)
	}
	return r, nil
}

func parsePage(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 0, fmt.Errorf("%w: %q is not a page number", models.ErrInvalidRange, s)
	}
	return p, nil
}

// ParsePages reads a selection and flattens it into sorted distinct 1-indexed
// page numbers. Open-ended spans are resolved against pageCount; any page
// beyond it is ErrPageOutOfRange.
func ParsePages(s string, pageCount int) ([]int, error) {
	ranges, err := Parse(s)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	var pages []int
	for _, r := range ranges {
		if r.End == Last {
			r.End = max(pageCount, r.Start)
		}
		if r.End > pageCount {
			return nil, fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, r.End, pageCount)
		}
		for p := r.Start; p <= r.End; p++ {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages, nil
}
