package models

import (
	"fmt"
	"strings"
)

// DocumentKind distinguishes the single-term bulletin from the multi-term transcript.
type DocumentKind string

const (
	DocumentBulletin   DocumentKind = "BULLETIN"
	DocumentTranscript DocumentKind = "TRANSCRIPT"
)

// Language is a supported display language.
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

// ParseLanguage normalises raw input into a supported language.
func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageFR:
		return LanguageFR, nil
	case LanguageEN:
		return LanguageEN, nil
	default:
		return "", fmt.Errorf("unsupported language %q", raw)
	}
}

// PageFormat is a supported paper size.
type PageFormat string

const (
	PageA4     PageFormat = "A4"
	PageLetter PageFormat = "LETTER"
)

// ParsePageFormat normalises raw input into a supported page format.
func ParsePageFormat(raw string) (PageFormat, error) {
	switch PageFormat(strings.ToUpper(strings.TrimSpace(raw))) {
	case PageA4:
		return PageA4, nil
	case PageLetter:
		return PageLetter, nil
	default:
		return "", fmt.Errorf("unsupported page format %q", raw)
	}
}

// ColorScheme is the closed set of document themes.
type ColorScheme string

const (
	SchemeOfficial ColorScheme = "OFFICIAL"
	SchemeModern   ColorScheme = "MODERN"
	SchemeClassic  ColorScheme = "CLASSIC"
)

// ParseColorScheme normalises raw input into a known scheme.
func ParseColorScheme(raw string) (ColorScheme, error) {
	switch ColorScheme(strings.ToUpper(strings.TrimSpace(raw))) {
	case SchemeOfficial:
		return SchemeOfficial, nil
	case SchemeModern:
		return SchemeModern, nil
	case SchemeClassic:
		return SchemeClassic, nil
	default:
		return "", fmt.Errorf("unsupported color scheme %q", raw)
	}
}

// RenderOptions enumerates every recognised rendering option.
type RenderOptions struct {
	Language              Language    `json:"language"`
	PageFormat            PageFormat  `json:"pageFormat"`
	ColorScheme           ColorScheme `json:"colorScheme"`
	IncludePhoto          bool        `json:"includePhoto"`
	IncludeCertifications bool        `json:"includeCertifications"`
	IncludeStatistics     bool        `json:"includeStatistics"`
	OfficialSeal          bool        `json:"officialSeal"`
}

// Normalize fills defaults and validates enumerated values.
func (o RenderOptions) Normalize(defaultLanguage Language) (RenderOptions, error) {
	var err error
	if o.Language == "" {
		o.Language = defaultLanguage
	}
	if o.Language, err = ParseLanguage(string(o.Language)); err != nil {
		return o, err
	}
	if o.PageFormat == "" {
		o.PageFormat = PageA4
	}
	if o.PageFormat, err = ParsePageFormat(string(o.PageFormat)); err != nil {
		return o, err
	}
	if o.ColorScheme == "" {
		o.ColorScheme = SchemeOfficial
	}
	if o.ColorScheme, err = ParseColorScheme(string(o.ColorScheme)); err != nil {
		return o, err
	}
	return o, nil
}
