package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RequiredString fails for empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MaxLenString limits value to maxLen characters (runes, not bytes).
func MaxLenString(field, value string, maxLen int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= maxLen
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at most %d characters long", maxLen),
			TranslationKey: "validation.max_length",
			TranslationValues: map[string]any{
				"field": field,
				"max":   maxLen,
			},
		},
	}
}

func MinLenSlice[T any](field string, value []T, minLen int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= minLen
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must have at least %d items", minLen),
			TranslationKey: "validation.min_items",
			TranslationValues: map[string]any{
				"field": field,
				"min":   minLen,
			},
		},
	}
}

func MaxLenSlice[T any](field string, value []T, maxLen int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= maxLen
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must have at most %d items", maxLen),
			TranslationKey: "validation.max_items",
			TranslationValues: map[string]any{
				"field": field,
				"max":   maxLen,
			},
		},
	}
}
