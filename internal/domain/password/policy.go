// Пакет password — политика сложности паролей, проверяемая до отправки
// формы в backend. Проверка выполняется только на стороне портала:
// backend собственных правил не навязывает.
package password

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Rule — идентификатор правила политики.
type Rule string

// Правила в порядке проверки.
const (
	RuleMinLength  Rule = "min_length"
	RuleWhitespace Rule = "whitespace"
	RuleLowercase  Rule = "lowercase"
	RuleUppercase  Rule = "uppercase"
	RuleDigit      Rule = "digit"
)

// ErrSameAsOld — новый пароль совпадает со старым.
var ErrSameAsOld = errors.New("A nova senha deve ser diferente.")

// Violation — нарушенное правило политики.
type Violation struct {
	Rule Rule
	// Min — минимальная длина (только для RuleMinLength).
	Min int
}

// Error возвращает сообщение для пользователя (pt).
func (v *Violation) Error() string {
	switch v.Rule {
	case RuleMinLength:
		return fmt.Sprintf("A senha deve ter pelo menos %d caracteres.", v.Min)
	case RuleWhitespace:
		return "A senha não pode conter espaços em branco."
	case RuleLowercase:
		return "A senha deve conter pelo menos uma letra minúscula."
	case RuleUppercase:
		return "A senha deve conter pelo menos uma letra maiúscula."
	case RuleDigit:
		return "A senha deve conter pelo menos um número."
	default:
		return "Senha inválida."
	}
}

// MessageKey возвращает ключ i18n-каталога для правила.
func (v *Violation) MessageKey() string {
	return "password." + string(v.Rule)
}

// Policy — набор правил сложности пароля.
type Policy struct {
	// MinLength — минимальная длина в символах (не байтах).
	MinLength int
	// RequireLower — требовать строчную букву.
	RequireLower bool
	// ForbidWhitespace — запрещать пробельные символы.
	ForbidWhitespace bool
}

// DefaultPolicy — каноничный набор: 8 символов, без пробелов,
// строчная и прописная буквы, цифра.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:        8,
		RequireLower:     true,
		ForbidWhitespace: true,
	}
}

// Validate проверяет пароль и возвращает первое нарушенное правило или nil.
// Прописная буква и цифра обязательны всегда. Буквы и цифры засчитываются
// только ASCII (A-Z, a-z, 0-9); пробельные символы — любые из Unicode.
func (p Policy) Validate(pw string) *Violation {
	if utf8.RuneCountInString(pw) < p.MinLength {
		return &Violation{Rule: RuleMinLength, Min: p.MinLength}
	}

	var hasSpace, hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsSpace(r):
			hasSpace = true
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}

	switch {
	case p.ForbidWhitespace && hasSpace:
		return &Violation{Rule: RuleWhitespace}
	case p.RequireLower && !hasLower:
		return &Violation{Rule: RuleLowercase}
	case !hasUpper:
		return &Violation{Rule: RuleUppercase}
	case !hasDigit:
		return &Violation{Rule: RuleDigit}
	}
	return nil
}

// ValidateChange проверяет смену пароля: сначала правила для нового,
// затем отличие от старого. Возвращает *Violation, ErrSameAsOld или nil.
func (p Policy) ValidateChange(oldPw, newPw string) error {
	if v := p.Validate(newPw); v != nil {
		return v
	}
	if oldPw == newPw {
		return ErrSameAsOld
	}
	return nil
}
