// Package i18n registers the locales the realtime surfaces can speak.
package i18n

import "golang.org/x/text/language"

var supported = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supported)

// SupportedTags returns the list of supported language tags. The first entry
// is the default.
func SupportedTags() []language.Tag {
	tags := make([]language.Tag, len(supported))
	copy(tags, supported)
	return tags
}

// DefaultTag returns the default language tag.
func DefaultTag() language.Tag {
	return supported[0]
}

// ParseTag parses a BCP 47 tag and reports whether it maps to a supported
// locale.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultTag(), false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultTag(), false
	}
	return supported[index], true
}

// Match resolves a client-supplied locale value to a supported tag, falling
// back to the default when the value is empty or unknown.
func Match(value string) language.Tag {
	if value == "" {
		return DefaultTag()
	}
	tag, _ := ParseTag(value)
	return tag
}
