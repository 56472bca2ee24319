package forms

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/password"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
)

var (
	decoder  = form.NewDecoder()
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Decode разбирает тело формы в DTO.
func Decode(r *http.Request, v any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(v, r.PostForm)
}

// LoginDTO — форма входа.
type LoginDTO struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Normalize обрезает пробелы логина (пароль не трогается).
func (d *LoginDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
}

// Ok проверяет обязательные поля.
func (d *LoginDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return structErrors(ctx, d)
}

// CreateUserDTO — форма создания пользователя.
type CreateUserDTO struct {
	Username string `form:"username" validate:"required,max=64"`
	FullName string `form:"full_name" validate:"max=128"`
	Password string `form:"password"`
	Role     string `form:"role" validate:"required,oneof=admin supervisor solicitante"`
}

// Normalize обрезает пробелы текстовых полей.
func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.FullName = strings.TrimSpace(d.FullName)
}

// Ok проверяет поля и пароль по политике. Пустой пароль отклоняется
// правилом минимальной длины.
func (d *CreateUserDTO) Ok(ctx context.Context, policy password.Policy) (map[string]string, bool) {
	errs, _ := structErrors(ctx, d)
	if v := policy.Validate(d.Password); v != nil {
		errs["Password"] = ViolationMessage(ctx, v)
	}
	return errs, len(errs) == 0
}

// UpdateUserDTO — форма редактирования. Пустой пароль — без смены пароля.
type UpdateUserDTO struct {
	FullName string `form:"full_name" validate:"max=128"`
	Password string `form:"password"`
	Role     string `form:"role" validate:"required,oneof=admin supervisor solicitante"`
}

// Normalize обрезает пробелы имени.
func (d *UpdateUserDTO) Normalize() {
	d.FullName = strings.TrimSpace(d.FullName)
}

// Ok проверяет поля; пароль — только если он задан.
func (d *UpdateUserDTO) Ok(ctx context.Context, policy password.Policy) (map[string]string, bool) {
	errs, _ := structErrors(ctx, d)
	if d.Password != "" {
		if v := policy.Validate(d.Password); v != nil {
			errs["Password"] = ViolationMessage(ctx, v)
		}
	}
	return errs, len(errs) == 0
}

// ChangePasswordDTO — форма смены собственного пароля.
type ChangePasswordDTO struct {
	OldPassword string `form:"old_password" validate:"required"`
	NewPassword string `form:"new_password"`
}

// Ok проверяет поля, политику и отличие нового пароля от старого.
// Пустой новый пароль получает сообщение о минимальной длине.
func (d *ChangePasswordDTO) Ok(ctx context.Context, policy password.Policy) (map[string]string, bool) {
	errs, _ := structErrors(ctx, d)
	if _, missingOld := errs["OldPassword"]; missingOld {
		if v := policy.Validate(d.NewPassword); v != nil {
			errs["NewPassword"] = ViolationMessage(ctx, v)
		}
		return errs, false
	}

	err := policy.ValidateChange(d.OldPassword, d.NewPassword)
	var v *password.Violation
	switch {
	case errors.As(err, &v):
		errs["NewPassword"] = ViolationMessage(ctx, v)
	case errors.Is(err, password.ErrSameAsOld):
		errs["NewPassword"] = i18n.T(ctx, "password.same_as_old")
	}
	return errs, len(errs) == 0
}

// ViolationMessage переводит нарушение политики пароля.
func ViolationMessage(ctx context.Context, v *password.Violation) string {
	if v.Rule == password.RuleMinLength {
		return i18n.Tf(ctx, v.MessageKey(), v.Min)
	}
	return i18n.T(ctx, v.MessageKey())
}

// FirstError возвращает одно сообщение для toast в порядке полей формы.
func FirstError(errs map[string]string, order ...string) string {
	for _, f := range order {
		if msg, ok := errs[f]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}

// structErrors проверяет теги validate и переводит ошибки:
// поле → "validation.<tag>" с подстановкой названия поля.
func structErrors(ctx context.Context, v any) (map[string]string, bool) {
	errorMessages := map[string]string{}
	err := validate.Struct(v)
	if err == nil {
		return errorMessages, true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errorMessages["_"] = err.Error()
		return errorMessages, false
	}
	for _, fe := range verrs {
		field := i18n.T(ctx, "field."+fe.Field())
		errorMessages[fe.Field()] = i18n.Tf(ctx, "validation."+fe.Tag(), field)
	}
	return errorMessages, len(errorMessages) == 0
}
