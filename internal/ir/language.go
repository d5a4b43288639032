package ir

import (
	"fmt"
	"maps"
	"slices"

	"golang.org/x/text/language"
)

// LanguageString maps BCP 47 language tags to text, e.g. {"cs": "Osoba", "en": "Person"}.
type LanguageString map[string]string

// Validate checks that every key is a well-formed BCP 47 tag.
func (ls LanguageString) Validate() error {
	for _, tag := range slices.Sorted(maps.Keys(ls)) {
		if _, err := language.Parse(tag); err != nil {
			return fmt.Errorf("invalid language tag %q: %w", tag, err)
		}
	}
	return nil
}

// ToValue converts the label map into its wire form.
func (ls LanguageString) ToValue() Object {
	obj := make(Object, len(ls))
	for tag, text := range ls {
		obj[tag] = String(text)
	}
	return obj
}

// LanguageStringFromValue reads a label map from its wire form. Non-string
// members are skipped.
func LanguageStringFromValue(v Value) LanguageString {
	obj, ok := v.(Object)
	if !ok {
		return LanguageString{}
	}
	out := make(LanguageString, len(obj))
	for tag, text := range obj {
		if s, ok := text.(String); ok {
			out[tag] = string(s)
		}
	}
	return out
}
