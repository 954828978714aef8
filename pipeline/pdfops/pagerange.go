package pdfops

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValidatePageOrder enforces that every entry of a reorder sequence lies in
// [1, pageCount]. Reordering is strict: one bad entry rejects the whole
// request before any page is copied. Duplicates and omissions are fine.
func ValidatePageOrder(order []int, pageCount int) error {
	if len(order) == 0 {
		return fmt.Errorf("%w: pageOrder must name at least one page", ErrInvalidOption)
	}
	for _, n := range order {
		if n < 1 || n > pageCount {
			return fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPageNumber, n, pageCount)
		}
	}
	return nil
}

// ResolvePageRange expands a page-range expression ("all", "2-5", "1,3,7",
// or a mix like "1,3-4") into sorted unique 1-based page numbers. Entries
// outside [1, pageCount] are silently dropped: ranges select pages to touch
// additively, so clamping is safe where reordering must not guess. Malformed
// syntax is still an error; only the numeric range is lenient. The result
// may be empty when everything fell outside the document.
func ResolvePageRange(expr string, pageCount int) ([]int, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" || s == "all" {
		all := make([]int, pageCount)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}

	selected := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err1 := strconv.Atoi(strings.TrimSpace(lo))
			to, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || from > to {
				return nil, fmt.Errorf("%w: malformed page range %q", ErrInvalidOption, part)
			}
			if from < 1 {
				from = 1
			}
			if to > pageCount {
				to = pageCount
			}
			for n := from; n <= to; n++ {
				selected[n] = true
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed page number %q", ErrInvalidOption, part)
		}
		if n >= 1 && n <= pageCount {
			selected[n] = true
		}
	}

	pages := make([]int, 0, len(selected))
	for n := range selected {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

// ParsePageOrder decodes the boundary's pageOrder parameter, a JSON-style
// array of 1-based page numbers such as "[3,1,2]". Plain comma lists are
// accepted too since several clients send them.
func ParsePageOrder(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: pageOrder is empty", ErrInvalidOption)
	}
	parts := strings.Split(s, ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: pageOrder entry %q is not a number", ErrInvalidOption, strings.TrimSpace(part))
		}
		order = append(order, n)
	}
	return order, nil
}
