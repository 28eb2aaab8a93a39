package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/model"
)

// RegisterPage collects the fields for a new account.
type RegisterPage struct {
	deps *Deps
	keys KeyMap

	inputs []textinput.Model
	labels []string
	focus  int

	submitting bool
	frame      int
	errMsg     string
}

const (
	regUsername = iota
	regFullName
	regEmail
	regPhone
	regDOB
	regPassword
	regFieldCount
)

type registerDoneMsg struct {
	err error
}

// NewRegisterPage creates the registration form.
func NewRegisterPage(deps *Deps) *RegisterPage {
	labels := []string{"Username", "Full name", "Email", "Phone", "Date of birth (YYYY-MM-DD)", "Password"}
	inputs := make([]textinput.Model, regFieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 120
		switch i {
		case regPassword:
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		case regDOB:
			in.Placeholder = "1999-01-31"
			in.CharLimit = 10
		}
		inputs[i] = in
	}
	inputs[regUsername].Focus()

	return &RegisterPage{
		deps:   deps,
		keys:   DefaultKeyMap(),
		inputs: inputs,
		labels: labels,
	}
}

func (p *RegisterPage) ID() string { return PageRegister }

func (p *RegisterPage) Init() tea.Cmd {
	p.submitting = false
	p.errMsg = ""
	return textinput.Blink
}

func (p *RegisterPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case spinnerTickMsg:
		if p.submitting {
			p.frame++
			return spinnerTick(), nil
		}
		return nil, nil

	case registerDoneMsg:
		p.submitting = false
		if msg.err != nil {
			p.errMsg = registerErrorText(msg.err)
			return nil, nil
		}
		return nil, &PageNav{PageID: PageLogin, Params: "Account created. Please sign in."}
	}

	return p.updateInputs(msg), nil
}

func (p *RegisterPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.ForceQuit):
		return tea.Quit, nil

	case key.Matches(msg, p.keys.Back):
		return nil, &PageNav{PageID: PageLogin}

	case key.Matches(msg, p.keys.NextField):
		return p.moveFocus(1), nil

	case key.Matches(msg, p.keys.PrevField):
		return p.moveFocus(-1), nil

	case key.Matches(msg, p.keys.Submit):
		// Enter moves down until the last field, then submits.
		if p.focus < regFieldCount-1 {
			return p.moveFocus(1), nil
		}
		return p.submit(), nil
	}

	return p.updateInputs(msg), nil
}

func (p *RegisterPage) moveFocus(dir int) tea.Cmd {
	p.inputs[p.focus].Blur()
	p.focus = (p.focus + dir + regFieldCount) % regFieldCount
	return p.inputs[p.focus].Focus()
}

func (p *RegisterPage) submit() tea.Cmd {
	if p.submitting {
		return nil
	}
	reg := model.Registration{
		Username: p.inputs[regUsername].Value(),
		FullName: p.inputs[regFullName].Value(),
		Email:    p.inputs[regEmail].Value(),
		Phone:    p.inputs[regPhone].Value(),
		DOB:      p.inputs[regDOB].Value(),
		Password: p.inputs[regPassword].Value(),
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		p.errMsg = "Username, email, and password are required."
		return nil
	}
	p.submitting = true
	p.errMsg = ""

	client := p.deps.API
	return tea.Batch(func() tea.Msg {
		return registerDoneMsg{err: client.Register(context.Background(), reg)}
	}, spinnerTick())
}

func (p *RegisterPage) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(p.inputs))
	for i := range p.inputs {
		p.inputs[i], cmds[i] = p.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func registerErrorText(err error) string {
	var serr *api.StatusError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return "Registration failed. Please try again later."
}

func (p *RegisterPage) View(width, height int) string {
	lines := []string{
		renderBranding(),
		"",
		titleStyle.Render("Create your account"),
		"",
	}
	for i, in := range p.inputs {
		lines = append(lines, inputLabelStyle.Render(p.labels[i]), in.View())
	}
	lines = append(lines, "")

	switch {
	case p.submitting:
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		lines = append(lines, mutedStyle.Render(frame+" Creating account..."))
	case p.errMsg != "":
		lines = append(lines, errorStyle.Render(p.errMsg))
	}

	lines = append(lines, "", helpStyle.Render("enter/tab: next • enter on last field: submit • esc: back to login"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}
