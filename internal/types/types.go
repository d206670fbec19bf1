// Package types provides shared type definitions for the application.
package types

import "time"

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Result is one translated scan of the configured screen regions.
type Result struct {
	Source     string    `json:"source"`     // Recognized text
	Translated string    `json:"translated"` // Translated text
	SourceLang string    `json:"sourceLang"`
	TargetLang string    `json:"targetLang"`
	Manual     bool      `json:"manual"` // Triggered by a hotkey rather than the capture loop
	Timestamp  time.Time `json:"timestamp"`
}

// Status reports the pipeline state to the overlay.
type Status struct {
	State   string `json:"state"` // "running", "stopped", "error"
	Message string `json:"message,omitempty"`
}
