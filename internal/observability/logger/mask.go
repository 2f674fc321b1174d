package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Email creates a field with the address masked. Raw addresses never
// reach the logs.
func Email(addr string) zap.Field { return zap.String("email", maskEmail(addr)) }

func maskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "***" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "***"
	}
	parts := strings.Split(dom, ".")
	if len(parts) > 0 && len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "***"
	}
	return user + "@" + strings.Join(parts, ".")
}
