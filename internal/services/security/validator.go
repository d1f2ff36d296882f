package security

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"scanpay/internal/models"
)

// ValidationResult is the structured outcome of a security check.
// IsValid is false iff Errors is non-empty; warnings never block.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

const (
	minScanLength = 1
	maxScanLength = 2048
)

// Dangerous URI schemes and script-injection patterns. Any match is a
// hard rejection.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)file:`),
	regexp.MustCompile(`(?i)ftp:`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`(?i)\bexpression\s*\(`),
}

var allowedProtocols = map[string]bool{
	"http":   true,
	"https":  true,
	"tel":    true,
	"mailto": true,
	"sms":    true,
}

var urlShorteners = map[string]bool{
	"bit.ly":      true,
	"tinyurl.com": true,
	"t.co":        true,
	"goo.gl":      true,
	"is.gd":       true,
	"ow.ly":       true,
	"buff.ly":     true,
	"rb.gy":       true,
	"s.id":        true,
}

// Advisory signals for audit; these never block a scan.
var credentialKeywords = []string{
	"password", "passwd", "pwd",
	"credit card", "card number", "cvv",
	"ssn", "social security",
	"api key", "api_key", "apikey",
	"secret", "private key", "access token",
}

// ValidateScanSecurity runs the structural and content checks on a
// scan result before its text is trusted anywhere else.
func (s *service) ValidateScanSecurity(result models.ScanResult) ValidationResult {
	v := ValidationResult{}
	text := result.Text

	// Bounds are in characters, not bytes; Indonesian text is routinely
	// multi-byte.
	length := utf8.RuneCountInString(text)
	if length < minScanLength {
		v.Errors = append(v.Errors, "scan text is empty")
	}
	if length > maxScanLength {
		v.Errors = append(v.Errors, fmt.Sprintf("scan text exceeds %d characters", maxScanLength))
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(text) {
			v.Errors = append(v.Errors, fmt.Sprintf("text matches blocked pattern %q", pattern.String()))
		}
	}

	if u, err := url.Parse(text); err == nil && u.Scheme != "" && looksLikeURL(text, u) {
		s.checkURL(u, &v)
	}

	lower := strings.ToLower(text)
	for _, keyword := range credentialKeywords {
		if strings.Contains(lower, keyword) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("text contains credential-like keyword %q", keyword))
			break
		}
	}

	v.IsValid = len(v.Errors) == 0

	if !v.IsValid {
		s.LogSecurityEvent("scan_rejected", map[string]interface{}{
			"errors": strings.Join(v.Errors, "; "),
			"format": string(result.Format),
		})
	} else if len(v.Warnings) > 0 {
		s.LogSecurityEvent("scan_flagged", map[string]interface{}{
			"warnings": strings.Join(v.Warnings, "; "),
			"format":   string(result.Format),
		})
	}

	return v
}

func (s *service) checkURL(u *url.URL, v *ValidationResult) {
	scheme := strings.ToLower(u.Scheme)
	if !allowedProtocols[scheme] {
		v.Errors = append(v.Errors, fmt.Sprintf("protocol %q is not allowed", scheme))
		return
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return
	}

	if net.ParseIP(host) != nil {
		v.Warnings = append(v.Warnings, "URL uses an IP-literal host")
	}
	if urlShorteners[host] {
		v.Warnings = append(v.Warnings, fmt.Sprintf("URL uses known shortener %q", host))
	}
	if len(host) > 50 || hasRepeatedRun(host, 5) {
		v.Warnings = append(v.Warnings, "URL hostname looks suspicious")
	}
}

// hasRepeatedRun reports a run of n or more identical bytes, a common
// shape of machine-generated hostnames. RE2 has no backreferences, so
// this cannot be a regexp.
func hasRepeatedRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// looksLikeURL filters out plain text that url.Parse technically
// accepts (e.g. "KP2A01: paid" parses with scheme "kp2a01").
func looksLikeURL(text string, u *url.URL) bool {
	if strings.ContainsAny(text, " \t") {
		return false
	}
	if u.Host != "" || u.Opaque != "" {
		return true
	}
	return strings.Contains(text, "://")
}
