package service

import (
	"unicode"

	"github.com/employer-pool/internal/config"
)

// PasswordPolicyError 密码策略错误，携带 i18n 键与参数
type PasswordPolicyError struct {
	key  string
	args []interface{}
}

func (e PasswordPolicyError) Error() string { return e.key }

// Is 使 errors.Is(err, ErrWeakPassword) 成立
func (e PasswordPolicyError) Is(target error) bool { return target == ErrWeakPassword }

// Key 返回 i18n 键
func (e PasswordPolicyError) Key() string { return e.key }

// Args 返回 i18n 参数
func (e PasswordPolicyError) Args() []interface{} { return e.args }

type passwordClass struct {
	required bool
	matches  func(rune) bool
	key      string
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return PasswordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}
	classes := []passwordClass{
		{policy.RequireUpper, unicode.IsUpper, "error.password_require_upper"},
		{policy.RequireLower, unicode.IsLower, "error.password_require_lower"},
		{policy.RequireNumber, unicode.IsDigit, "error.password_require_number"},
		{policy.RequireSpecial, isSpecialRune, "error.password_require_special"},
	}
	for _, class := range classes {
		if class.required && !containsRune(password, class.matches) {
			return PasswordPolicyError{key: class.key}
		}
	}
	return nil
}

func containsRune(s string, matches func(rune) bool) bool {
	for _, r := range s {
		if matches(r) {
			return true
		}
	}
	return false
}

func isSpecialRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
