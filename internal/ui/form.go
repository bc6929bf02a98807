package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fieldSpec struct {
	label  string
	secret bool
}

// form is a vertical stack of text inputs with one focused at a time.
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(title string, fields ...fieldSpec) *form {
	f := &form{title: title}
	for _, field := range fields {
		in := textinput.New()
		in.Placeholder = strings.ToLower(field.label)
		in.CharLimit = 128
		if field.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.labels = append(f.labels, field.label)
		f.inputs = append(f.inputs, in)
	}
	return f
}

func newLoginForm() *form {
	return newForm("Log in to iVideo",
		fieldSpec{label: "Username"},
		fieldSpec{label: "Password", secret: true},
	)
}

func newRegisterForm() *form {
	return newForm("Create an iVideo account",
		fieldSpec{label: "Username"},
		fieldSpec{label: "Email"},
		fieldSpec{label: "Password", secret: true},
	)
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// complete reports whether every field has a value.
func (f *form) complete() bool {
	for i := range f.inputs {
		if f.value(i) == "" {
			return false
		}
	}
	return true
}

func (f *form) onLast() bool {
	return f.focus == len(f.inputs)-1
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *form) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

// reset clears every field, keeping the first n values.
func (f *form) reset(keep int) tea.Cmd {
	for i := keep; i < len(f.inputs); i++ {
		f.inputs[i].Reset()
	}
	return f.setFocus(keep)
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title))
	b.WriteString("\n")
	for i, in := range f.inputs {
		label := styles.label
		if i == f.focus {
			label = styles.focus
		}
		b.WriteString(label.Render(f.labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}
