package models

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() RuntimeConfig {
	return RuntimeConfig{
		BaseSystemPrompt: "Today is %s.",
		StandardModel:    "gpt-4o-mini",
		PremiumModel:     "gpt-4o",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuntimeConfig)
		field  string
	}{
		{"valid", func(c *RuntimeConfig) {}, ""},
		{"legacy prompt", func(c *RuntimeConfig) { c.SystemPrompt, c.BaseSystemPrompt = c.BaseSystemPrompt, "" }, ""},
		{"missing prompt", func(c *RuntimeConfig) { c.BaseSystemPrompt = "" }, "base_system_prompt"},
		{"no placeholder", func(c *RuntimeConfig) { c.BaseSystemPrompt = "Hello" }, "base_system_prompt"},
		{"two placeholders", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s and %s" }, "base_system_prompt"},
		{"escaped placeholder", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s and %%s" }, "base_system_prompt"},
		{"null byte", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s\x00" }, "base_system_prompt"},
		{"bad utf8", func(c *RuntimeConfig) { c.CategoryPrompts = map[string]string{"creative": "\xff"} }, "category_prompts.creative"},
		{"category null byte", func(c *RuntimeConfig) { c.CategoryPrompts = map[string]string{"factual": "a\x00"} }, "category_prompts.factual"},
		{"integer verb", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s, day %d" }, "base_system_prompt"},
		{"pointer verb", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s at %p" }, "base_system_prompt"},
		{"no standard model", func(c *RuntimeConfig) { c.StandardModel = "" }, "standard_model"},
		{"no premium model", func(c *RuntimeConfig) { c.PremiumModel = "" }, "premium_model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error text should name the field: %v", err)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RuntimeConfig)
		message string
	}{
		{"base null byte", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s\x00" }, "System prompt contains null bytes"},
		{"base bad utf8", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s\xff" }, "System prompt contains invalid UTF-8"},
		{"category null byte", func(c *RuntimeConfig) { c.CategoryPrompts = map[string]string{"creative": "\x00"} }, "Category prompt contains null bytes"},
		{"category bad utf8", func(c *RuntimeConfig) { c.CategoryPrompts = map[string]string{"creative": "\xff"} }, "Category prompt contains invalid UTF-8"},
		{"two placeholders", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %s" }, "System prompt must contain exactly one %s placeholder (found 2)"},
		{"%d", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %d" }, "System prompt contains unsupported format specifier: %d"},
		{"%f", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %f" }, "System prompt contains unsupported format specifier: %f"},
		{"%v", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %v" }, "System prompt contains unsupported format specifier: %v"},
		{"%+v", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %+v" }, "System prompt contains unsupported format specifier: %+v"},
		{"%#v", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %#v" }, "System prompt contains unsupported format specifier: %#v"},
		{"%x", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %x" }, "System prompt contains unsupported format specifier: %x"},
		{"%X", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %X" }, "System prompt contains unsupported format specifier: %X"},
		{"%p", func(c *RuntimeConfig) { c.BaseSystemPrompt = "%s %p" }, "System prompt contains unsupported format specifier: %p"},
		{"escaped placeholder", func(c *RuntimeConfig) { c.BaseSystemPrompt = "Today is %%s" }, "System prompt contains escaped placeholder (%%s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			var cfgErr *ConfigError
			if err := cfg.Validate(); !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, cfgErr.Message)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := validConfig()
	cfg.CategoryPrompts = map[string]string{
		"web_search": "  cite sources  ",
		"factual":    "   ",
		"creative":   "",
	}

	out := cfg.Normalize()

	if len(out.CategoryPrompts) != 1 || out.CategoryPrompts["web_search"] != "cite sources" {
		t.Errorf("unexpected prompts %v", out.CategoryPrompts)
	}
	if out.SystemPrompt != cfg.BaseSystemPrompt {
		t.Errorf("legacy prompt should mirror the base prompt, got %q", out.SystemPrompt)
	}
	if out.PerplexityEnabled == nil || !*out.PerplexityEnabled {
		t.Error("unset search toggle should normalize to enabled")
	}
	if len(cfg.CategoryPrompts) != 3 {
		t.Error("Normalize must not modify the receiver's map")
	}
}

func TestSearchEnabled(t *testing.T) {
	off := false
	if (RuntimeConfig{PerplexityEnabled: &off}).SearchEnabled() {
		t.Error("explicit false should disable search")
	}
	if !(RuntimeConfig{}).SearchEnabled() {
		t.Error("unset should mean enabled")
	}
}
