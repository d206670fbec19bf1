// Package langdetect guesses the language of recognized text.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"go.aimuz.me/gamelingo/translator"
)

// Unknown is returned when the language cannot be determined.
const Unknown = translator.AutoDetect

var codes = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.Italian:    "it",
	lingua.Spanish:    "es",
	lingua.French:     "fr",
	lingua.German:     "de",
	lingua.Portuguese: "pt",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.Chinese:    "zh-CN",
	lingua.Russian:    "ru",
	lingua.Arabic:     "ar",
	lingua.Hindi:      "hi",
	lingua.Dutch:      "nl",
	lingua.Polish:     "pl",
	lingua.Turkish:    "tr",
	lingua.Vietnamese: "vi",
	lingua.Thai:       "th",
}

// Models are large; build the detector on first use.
var detector = sync.OnceValue(func() lingua.LanguageDetector {
	langs := make([]lingua.Language, 0, len(codes))
	for l := range codes {
		langs = append(langs, l)
	}
	return lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build()
})

// Detect returns the application language code and display name of text, or
// Unknown and an empty name.
func Detect(text string) (code, name string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown, ""
	}

	lang, ok := detector().DetectLanguageOf(text)
	if !ok {
		return Unknown, ""
	}
	code, ok = codes[lang]
	if !ok {
		return Unknown, ""
	}
	return code, translator.Languages[code]
}
