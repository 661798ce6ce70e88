package i18n

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	// LocaleEnUS 英文
	LocaleEnUS = "en-US"
	// LocaleZhCN 简体中文
	LocaleZhCN = "zh-CN"
	// DefaultLocale 默认语言
	DefaultLocale = LocaleEnUS
)

var supportedTags = []language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
}

var (
	matcher = language.NewMatcher(supportedTags)

	buildOnce sync.Once
	cat       *catalog.Builder
)

func messages() *catalog.Builder {
	buildOnce.Do(func() {
		cat = catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
		for key, msg := range enUS {
			_ = cat.SetString(language.AmericanEnglish, key, msg)
		}
		for key, msg := range zhCN {
			_ = cat.SetString(language.SimplifiedChinese, key, msg)
		}
	})
	return cat
}

// NormalizeLocale 将任意语言标识归一化为受支持的 locale
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeForTag(supportedTags[index])
}

// ResolveLocale 从请求解析语言：?lang= 优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	return NormalizeLocale(c.GetHeader("Accept-Language"))
}

// T 翻译消息键，未知键原样返回
func T(locale, key string) string {
	return Sprintf(locale, key)
}

// Sprintf 翻译消息键并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	if !Has(key) {
		return key
	}
	printer := message.NewPrinter(tagForLocale(locale), message.Catalog(messages()))
	return printer.Sprintf(key, args...)
}

// Has 判断消息键是否存在
func Has(key string) bool {
	_, ok := enUS[key]
	return ok
}

func tagForLocale(locale string) language.Tag {
	if NormalizeLocale(locale) == LocaleZhCN {
		return language.SimplifiedChinese
	}
	return language.AmericanEnglish
}

func localeForTag(tag language.Tag) string {
	if tag == language.SimplifiedChinese {
		return LocaleZhCN
	}
	return LocaleEnUS
}
