package service

import (
	"sort"
	"strings"
	"unicode/utf8"

	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/model"
)

// NormalizeCategories trims the submitted categories, drops blanks and
// de-duplicates by exact (case-sensitive) match. More than model.MaxCategories
// distinct entries is rejected with a *CategoryLimitError carrying the count.
// The result is sorted; nil or empty input yields an empty, valid set.
func NormalizeCategories(raw []string) ([]string, error) {
	out := DistinctCategories(raw)
	if len(out) > model.MaxCategories {
		return nil, &apperrors.CategoryLimitError{Count: len(out), Max: model.MaxCategories}
	}
	for _, c := range out {
		if utf8.RuneCountInString(c) > model.MaxCategoryLen {
			return nil, apperrors.Invalid("category %q is longer than %d characters", c, model.MaxCategoryLen)
		}
	}
	return out, nil
}

// DistinctCategories is the trim, drop-blank and de-duplicate step of
// NormalizeCategories without the limits. The result is sorted.
func DistinctCategories(raw []string) []string {
	set := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
