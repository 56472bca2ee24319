// Пакет forms — формы CRUD портала: машина состояний модального окна
// и DTO с декодированием и проверкой полей.
package forms

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition — переход, недопустимый из текущего состояния.
var ErrIllegalTransition = errors.New("недопустимый переход модального окна")

// ModalState — состояние модального окна.
type ModalState int

const (
	StateClosed ModalState = iota
	StateOpen
	StateSubmitting
)

func (s ModalState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("ModalState(%d)", int(s))
	}
}

// Modal — модальное окно формы одного рендера.
// closed → open → submitting → (closed | open с ошибкой).
// Ошибка проверки на клиенте оставляет окно открытым без отправки.
type Modal struct {
	Name   string
	state  ModalState
	errMsg string
	fields map[string]string
}

// NewModal создаёт закрытое окно.
func NewModal(name string) *Modal {
	return &Modal{Name: name}
}

// State — текущее состояние.
func (m *Modal) State() ModalState { return m.state }

// IsOpen — окно показывается пользователю.
func (m *Modal) IsOpen() bool { return m.state == StateOpen }

// ErrorMessage — сообщение последней ошибки (пусто, если её нет).
func (m *Modal) ErrorMessage() string { return m.errMsg }

// FieldErrors — ошибки отдельных полей формы.
func (m *Modal) FieldErrors() map[string]string { return m.fields }

// Open открывает закрытое окно.
func (m *Modal) Open() error {
	if m.state != StateClosed {
		return m.illegal("open")
	}
	m.state = StateOpen
	m.errMsg = ""
	m.fields = nil
	return nil
}

// Reject оставляет окно открытым с ошибками проверки; запрос не отправляется.
func (m *Modal) Reject(msg string, fields map[string]string) error {
	if m.state != StateOpen {
		return m.illegal("reject")
	}
	m.errMsg = msg
	m.fields = fields
	return nil
}

// Submit переводит открытое окно в отправку.
func (m *Modal) Submit() error {
	if m.state != StateOpen {
		return m.illegal("submit")
	}
	m.state = StateSubmitting
	m.errMsg = ""
	m.fields = nil
	return nil
}

// Succeed закрывает окно после успешного ответа.
func (m *Modal) Succeed() error {
	if m.state != StateSubmitting {
		return m.illegal("succeed")
	}
	m.state = StateClosed
	return nil
}

// Fail возвращает окно в открытое состояние с ошибкой ответа.
func (m *Modal) Fail(msg string) error {
	if m.state != StateSubmitting {
		return m.illegal("fail")
	}
	m.state = StateOpen
	m.errMsg = msg
	return nil
}

// Close закрывает окно без отправки (кнопка «Cancelar»).
func (m *Modal) Close() error {
	if m.state != StateOpen {
		return m.illegal("close")
	}
	m.state = StateClosed
	m.errMsg = ""
	m.fields = nil
	return nil
}

func (m *Modal) illegal(action string) error {
	return fmt.Errorf("%w: %s из состояния %s (%s)", ErrIllegalTransition, action, m.state, m.Name)
}
