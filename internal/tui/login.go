package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/api"
)

// LoginPage collects credentials and exchanges them for a session.
type LoginPage struct {
	deps *Deps
	keys KeyMap

	username textinput.Model
	password textinput.Model
	focus    int

	submitting bool
	frame      int
	errMsg     string
	notice     string
}

type loginDoneMsg struct {
	result *api.LoginResult
	err    error
}

// NewLoginPage creates the login form.
func NewLoginPage(deps *Deps) *LoginPage {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 80
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginPage{
		deps:     deps,
		keys:     DefaultKeyMap(),
		username: username,
		password: password,
	}
}

func (p *LoginPage) ID() string { return PageLogin }

func (p *LoginPage) Init() tea.Cmd {
	p.submitting = false
	p.errMsg = ""
	return textinput.Blink
}

// OnNav accepts a notice string to show above the form (for example
// "Account created" coming back from registration, or "Session expired").
func (p *LoginPage) OnNav(params any) {
	if s, ok := params.(string); ok {
		p.notice = s
	}
}

func (p *LoginPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case spinnerTickMsg:
		if p.submitting {
			p.frame++
			return spinnerTick(), nil
		}
		return nil, nil

	case loginDoneMsg:
		p.submitting = false
		if msg.err != nil {
			p.errMsg = loginErrorText(msg.err)
			return nil, nil
		}
		if err := p.deps.Session.Save(msg.result.AccessToken, msg.result.Username); err != nil {
			p.deps.logger().Warn("session save failed", zap.Error(err))
		}
		p.notice = ""
		return nil, &PageNav{PageID: PageHome, Params: freshLogin{}}
	}

	return p.updateInputs(msg), nil
}

func (p *LoginPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.ForceQuit):
		return tea.Quit, nil

	case key.Matches(msg, p.keys.Register):
		return nil, &PageNav{PageID: PageRegister}

	case key.Matches(msg, p.keys.NextField), key.Matches(msg, p.keys.PrevField):
		p.focus = (p.focus + 1) % 2
		if p.focus == 0 {
			p.password.Blur()
			return p.username.Focus(), nil
		}
		p.username.Blur()
		return p.password.Focus(), nil

	case key.Matches(msg, p.keys.Submit):
		if p.submitting {
			return nil, nil
		}
		username, password := p.username.Value(), p.password.Value()
		if username == "" || password == "" {
			p.errMsg = "Username and password are required."
			return nil, nil
		}
		p.submitting = true
		p.errMsg = ""
		return tea.Batch(p.loginCmd(username, password), spinnerTick()), nil
	}

	return p.updateInputs(msg), nil
}

func (p *LoginPage) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	p.username, cmd = p.username.Update(msg)
	cmds = append(cmds, cmd)
	p.password, cmd = p.password.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (p *LoginPage) loginCmd(username, password string) tea.Cmd {
	client := p.deps.API
	return func() tea.Msg {
		res, err := client.Login(context.Background(), username, password)
		return loginDoneMsg{result: res, err: err}
	}
}

func loginErrorText(err error) string {
	var serr *api.StatusError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return "Something went wrong. Please try again later."
}

func (p *LoginPage) View(width, height int) string {
	lines := []string{
		renderBranding(),
		"",
		titleStyle.Render("Welcome back"),
		"",
		inputLabelStyle.Render("Username"),
		p.username.View(),
		"",
		inputLabelStyle.Render("Password"),
		p.password.View(),
		"",
	}

	switch {
	case p.submitting:
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		lines = append(lines, mutedStyle.Render(frame+" Signing in..."))
	case p.errMsg != "":
		lines = append(lines, errorStyle.Render(p.errMsg))
	case p.notice != "":
		lines = append(lines, openStyle.Render(p.notice))
	}

	lines = append(lines, "", helpStyle.Render("enter: sign in • tab: next field • ctrl+r: register • ctrl+c: quit"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}
