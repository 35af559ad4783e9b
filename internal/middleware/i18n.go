// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", parseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// parseLanguage picks the first preference of a header like
// "zh-TW,zh;q=0.9,en;q=0.8".
func parseLanguage(header string) string {
	if header == "" {
		return i18n.DefaultLang
	}

	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch first {
	case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
		return "zh_TW"
	case "en", "en-US", "en-GB":
		return "en"
	default:
		return i18n.DefaultLang
	}
}
