package password

import (
	"errors"
	"testing"
)

func TestPolicy_Validate(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		password string
		want     Rule // пустая строка — пароль валиден
	}{
		{"пустой пароль", "", RuleMinLength},
		{"7 символов", "Abcde12", RuleMinLength},
		{"ровно 8 символов", "Abcdef12", ""},
		{"пробел внутри", "Abcd ef12", RuleWhitespace},
		{"табуляция", "Abcd\tef12", RuleWhitespace},
		{"нет строчных", "ABCDEF12", RuleLowercase},
		{"нет прописных", "abcdef12", RuleUppercase},
		{"нет цифр", "Abcdefgh", RuleDigit},
		{"длина считается в символах", "Aáááá1eé", ""},
		{"прописная не-ASCII не засчитывается", "Ábcdefg1", RuleUppercase},
		{"строчная не-ASCII не засчитывается", "ÁBCDEFG1", RuleLowercase},
		{"арабско-индийская цифра не засчитывается", "Abcdefg١", RuleDigit},
		{"неразрывный пробел", "Abcd\u00a0ef12", RuleWhitespace},
		{"многобайтовый пароль короче минимума", "Áá1éé", RuleMinLength},
		{"длина проверяется раньше пробелов", "A b1", RuleMinLength},
		{"сложный пароль", "S3nh@Forte!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := policy.Validate(tt.password)
			if tt.want == "" {
				if v != nil {
					t.Errorf("Validate(%q) = %v, хотели nil", tt.password, v.Rule)
				}
				return
			}
			if v == nil {
				t.Fatalf("Validate(%q) = nil, хотели нарушение %q", tt.password, tt.want)
			}
			if v.Rule != tt.want {
				t.Errorf("Validate(%q).Rule = %q, хотели %q", tt.password, v.Rule, tt.want)
			}
		})
	}
}

func TestPolicy_MinLengthMessage(t *testing.T) {
	policy := Policy{MinLength: 10, RequireLower: true, ForbidWhitespace: true}

	v := policy.Validate("Abc123")
	if v == nil || v.Rule != RuleMinLength {
		t.Fatalf("ожидалось нарушение min_length, получено %v", v)
	}
	if v.Min != 10 {
		t.Errorf("Min = %d, хотели 10", v.Min)
	}
	if got := v.Error(); got != "A senha deve ter pelo menos 10 caracteres." {
		t.Errorf("Error() = %q", got)
	}
	if got := v.MessageKey(); got != "password.min_length" {
		t.Errorf("MessageKey() = %q", got)
	}
}

func TestPolicy_Configurable(t *testing.T) {
	policy := Policy{MinLength: 8}

	// Без требования строчной буквы и с разрешёнными пробелами
	if v := policy.Validate("ABCD EF12"); v != nil {
		t.Errorf("Validate() = %v, хотели nil при ослабленной политике", v.Rule)
	}
	// Прописная буква и цифра обязательны всегда
	if v := policy.Validate("abcdefgh1"); v == nil || v.Rule != RuleUppercase {
		t.Errorf("ожидалось нарушение uppercase, получено %v", v)
	}
}

func TestPolicy_ValidateChange(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name    string
		oldPw   string
		newPw   string
		wantErr error
		rule    Rule
	}{
		{"успешная смена", "Antiga123", "Nova12345", nil, ""},
		{"совпадает со старым", "Senha1234", "Senha1234", ErrSameAsOld, ""},
		{"слабый новый пароль проверяется раньше совпадения", "abc", "abc", nil, RuleMinLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidateChange(tt.oldPw, tt.newPw)
			if tt.rule != "" {
				var v *Violation
				if !errors.As(err, &v) {
					t.Fatalf("ожидалось *Violation, получено %v", err)
				}
				if v.Rule != tt.rule {
					t.Errorf("Rule = %q, хотели %q", v.Rule, tt.rule)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChange() = %v, хотели %v", err, tt.wantErr)
			}
		})
	}
}
