package common

import (
	"net/url"
	"regexp"
	"strings"
)

// MaskedValue replaces every secret that reaches a log line or the audit store.
const MaskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "api_key")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Specific keys to mask (case-insensitive)
}

// DefaultSensitivePatterns covers the secrets this client handles: the API key
// (query string and header forms) and passwords in form bodies or JSON.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)\b(api[_-]?key)=([^&\s"]+)`),
		Replacement: "${1}=" + MaskedValue,
		Keys:        []string{"api_key", "apikey", "api-key"},
	},
	{
		Name:        "api_key_header",
		Regex:       regexp.MustCompile(`(?i)\b(api-key:\s*)(\S+)`),
		Replacement: "${1}" + MaskedValue,
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)\b(password|password_confirmation|passwd)=([^&\s"]+)`),
		Replacement: "${1}=" + MaskedValue,
		Keys:        []string{"password", "password_confirmation", "passwd"},
	},
	{
		Name:        "json_secret",
		Regex:       regexp.MustCompile(`(?i)"(api[_-]?key|password|password_confirmation)"\s*:\s*"[^"]*"`),
		Replacement: `"${1}":"` + MaskedValue + `"`,
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return &Masker{patterns: DefaultSensitivePatterns, enabled: true}
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.enabled {
		return input
	}
	result := input
	for _, pattern := range m.patterns {
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// MaskValue masks a value when its key is sensitive, otherwise applies the
// string patterns to it. Non-string values pass through untouched.
func (m *Masker) MaskValue(key string, value any) any {
	if !m.enabled {
		return value
	}
	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == sensitiveKey {
				return MaskedValue
			}
		}
	}
	if s, ok := value.(string); ok {
		return m.MaskString(s)
	}
	return value
}

// MaskURL replaces the api_key query value of a URL, leaving the rest of the
// query encoded as it was.
func (m *Masker) MaskURL(raw string) string {
	if !m.enabled {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return m.MaskString(raw)
	}
	if u.RawQuery == "" {
		return raw
	}
	u.RawQuery = DefaultSensitivePatterns[0].Regex.ReplaceAllString(u.RawQuery, DefaultSensitivePatterns[0].Replacement)
	return u.String()
}

var globalMasker = NewMasker()

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}
