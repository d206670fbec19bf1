package app

import (
	"go.aimuz.me/gamelingo/config"
	"go.aimuz.me/gamelingo/gamepad"
	"go.aimuz.me/gamelingo/internal/input"
)

// Bindings maps the configured keyboard and gamepad codes to actions.
// Negative gamepad buttons are unbound.
func Bindings(cfg *config.Config) map[string]input.Action {
	b := map[string]input.Action{}
	bind := func(code string, a input.Action) {
		if code != "" {
			b[code] = a
		}
	}
	button := func(n int) string {
		if n < 0 {
			return ""
		}
		return gamepad.ButtonCode(n)
	}

	bind(cfg.TranslateHotkey, input.ActionTranslate)
	bind(cfg.TTSHotkey, input.ActionSpeakSource)
	bind(cfg.TranslatedTTSHotkey, input.ActionSpeakTranslation)
	bind(button(cfg.TranslateGamepad), input.ActionTranslate)
	bind(button(cfg.TTSGamepad), input.ActionSpeakSource)
	bind(button(cfg.TranslatedTTSGamepad), input.ActionSpeakTranslation)
	return b
}
