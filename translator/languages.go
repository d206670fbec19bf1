package translator

import (
	"maps"
	"slices"
)

// AutoDetect as a source language asks the provider to detect the language.
const AutoDetect = "auto"

// Languages maps supported language codes to their display names.
var Languages = map[string]string{
	"en":    "English",
	"it":    "Italian",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"pt":    "Portuguese",
	"ja":    "Japanese",
	"ko":    "Korean",
	"zh-CN": "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"ru":    "Russian",
	"ar":    "Arabic",
	"hi":    "Hindi",
	"nl":    "Dutch",
	"pl":    "Polish",
	"tr":    "Turkish",
	"vi":    "Vietnamese",
	"th":    "Thai",
}

// IsSupported reports whether code is a known language code.
func IsSupported(code string) bool {
	_, ok := Languages[code]
	return ok
}

// LanguageCodes returns the supported codes in sorted order.
func LanguageCodes() []string {
	return slices.Sorted(maps.Keys(Languages))
}
