package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Categories lists the router categories that accept a prompt override,
// in display order.
var Categories = []string{"web_search", "complex", "factual", "mathematical", "creative"}

// RuntimeConfig is the proxy configuration exposed by /admin/config
type RuntimeConfig struct {
	BaseSystemPrompt  string            `json:"base_system_prompt"`
	CategoryPrompts   map[string]string `json:"category_prompts"`
	StandardModel     string            `json:"standard_model"`
	PremiumModel      string            `json:"premium_model"`
	CategoryModels    map[string]string `json:"category_models,omitempty"`
	PerplexityEnabled *bool             `json:"perplexity_enabled,omitempty"`

	// SystemPrompt mirrors BaseSystemPrompt for proxies that predate it.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// BasePrompt returns the base prompt, falling back to the legacy field.
func (c RuntimeConfig) BasePrompt() string {
	if c.BaseSystemPrompt != "" {
		return c.BaseSystemPrompt
	}
	return c.SystemPrompt
}

// SearchEnabled reports the web search toggle. Unset means enabled.
func (c RuntimeConfig) SearchEnabled() bool {
	if c.PerplexityEnabled == nil {
		return true
	}
	return *c.PerplexityEnabled
}

// Normalize prepares a config for saving: category prompts are trimmed
// and dropped when blank, and the legacy prompt field is mirrored.
func (c RuntimeConfig) Normalize() RuntimeConfig {
	out := c
	out.BaseSystemPrompt = c.BasePrompt()
	out.SystemPrompt = out.BaseSystemPrompt

	out.CategoryPrompts = make(map[string]string)
	for category, prompt := range c.CategoryPrompts {
		if prompt = strings.TrimSpace(prompt); prompt != "" {
			out.CategoryPrompts[category] = prompt
		}
	}

	enabled := c.SearchEnabled()
	out.PerplexityEnabled = &enabled
	return out
}

// unsupportedVerbs are rejected in the base prompt, which the proxy
// formats with the current date
var unsupportedVerbs = []string{"%d", "%f", "%v", "%+v", "%#v", "%x", "%X", "%p"}

// Validate runs the proxy's content checks with the proxy's messages, so
// that an operator sees the problem before the round trip.
func (c RuntimeConfig) Validate() error {
	base := c.BasePrompt()
	if base == "" {
		return &ConfigError{Field: "base_system_prompt", Message: "Base system prompt is required"}
	}
	if err := checkText("base_system_prompt", "System prompt", base); err != nil {
		return err
	}
	switch n := strings.Count(base, "%s"); {
	case n == 0:
		return &ConfigError{Field: "base_system_prompt", Message: "System prompt must contain exactly one %s placeholder for date/time"}
	case n > 1:
		return &ConfigError{Field: "base_system_prompt", Message: fmt.Sprintf("System prompt must contain exactly one %%s placeholder (found %d)", n)}
	}
	for _, verb := range unsupportedVerbs {
		if strings.Contains(base, verb) {
			return &ConfigError{Field: "base_system_prompt", Message: "System prompt contains unsupported format specifier: " + verb}
		}
	}
	if strings.Contains(base, "%%s") {
		return &ConfigError{Field: "base_system_prompt", Message: "System prompt contains escaped placeholder (%%s)"}
	}

	for category, prompt := range c.CategoryPrompts {
		if err := checkText("category_prompts."+category, "Category prompt", prompt); err != nil {
			return err
		}
	}
	if c.StandardModel == "" {
		return &ConfigError{Field: "standard_model", Message: "Standard model is required"}
	}
	if c.PremiumModel == "" {
		return &ConfigError{Field: "premium_model", Message: "Premium model is required"}
	}
	return nil
}

func checkText(field, label, text string) error {
	if strings.ContainsRune(text, 0) {
		return &ConfigError{Field: field, Message: label + " contains null bytes"}
	}
	if !utf8.ValidString(text) {
		return &ConfigError{Field: field, Message: label + " contains invalid UTF-8"}
	}
	return nil
}

// ConfigError reports an invalid config field
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message + " (field: " + e.Field + ")"
}
