package forms

import (
	"errors"
	"testing"
)

func TestModal_SuccessPath(t *testing.T) {
	m := NewModal("create")
	if m.State() != StateClosed {
		t.Fatalf("начальное состояние %s", m.State())
	}

	steps := []struct {
		name string
		do   func() error
		want ModalState
	}{
		{"open", m.Open, StateOpen},
		{"submit", m.Submit, StateSubmitting},
		{"succeed", m.Succeed, StateClosed},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if m.State() != s.want {
			t.Fatalf("после %s состояние %s, ожидается %s", s.name, m.State(), s.want)
		}
	}
}

func TestModal_FailReopensWithError(t *testing.T) {
	m := NewModal("edit")
	_ = m.Open()
	_ = m.Submit()

	if err := m.Fail("Erro ao atualizar: Falha desconhecida."); err != nil {
		t.Fatalf("Fail(): %v", err)
	}
	if !m.IsOpen() || m.ErrorMessage() != "Erro ao atualizar: Falha desconhecida." {
		t.Errorf("состояние %s, ошибка %q", m.State(), m.ErrorMessage())
	}

	// Повторная отправка очищает ошибку
	if err := m.Submit(); err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if m.ErrorMessage() != "" {
		t.Error("Submit() должен очищать прежнюю ошибку")
	}
}

func TestModal_RejectKeepsOpen(t *testing.T) {
	m := NewModal("create")
	_ = m.Open()

	fields := map[string]string{"Password": "curta"}
	if err := m.Reject("curta", fields); err != nil {
		t.Fatalf("Reject(): %v", err)
	}
	if !m.IsOpen() || m.FieldErrors()["Password"] != "curta" {
		t.Errorf("состояние %s, поля %v", m.State(), m.FieldErrors())
	}
}

func TestModal_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Modal)
		do    func(m *Modal) error
	}{
		{"submit из closed", func(*Modal) {}, (*Modal).Submit},
		{"succeed из closed", func(*Modal) {}, (*Modal).Succeed},
		{"fail из open", func(m *Modal) { _ = m.Open() }, func(m *Modal) error { return m.Fail("x") }},
		{"open из open", func(m *Modal) { _ = m.Open() }, (*Modal).Open},
		{"reject из submitting", func(m *Modal) { _ = m.Open(); _ = m.Submit() }, func(m *Modal) error { return m.Reject("x", nil) }},
		{"close из submitting", func(m *Modal) { _ = m.Open(); _ = m.Submit() }, (*Modal).Close},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModal("x")
			tt.setup(m)
			before := m.State()

			if err := tt.do(m); !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("ожидалась ErrIllegalTransition, получено %v", err)
			}
			if m.State() != before {
				t.Errorf("состояние изменилось: %s → %s", before, m.State())
			}
		})
	}
}

func TestModal_Close(t *testing.T) {
	m := NewModal("delete")
	_ = m.Open()
	if err := m.Close(); err != nil || m.State() != StateClosed {
		t.Errorf("Close() = %v, состояние %s", err, m.State())
	}
}
