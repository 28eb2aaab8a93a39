package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/model"
)

// profileMode is which of the page's three sub-views is active.
type profileMode int

const (
	profileViewing profileMode = iota
	profileEditing
	profileChangingPassword
)

// ProfilePage shows the user's stats and recent meals, and hosts the
// edit-profile and change-password forms.
type ProfilePage struct {
	deps *Deps
	keys KeyMap

	mode    profileMode
	data    *model.ProfileData
	loading bool

	inputs []textinput.Model
	labels []string
	focus  int

	submitting bool
	frame      int
	errMsg     string
	notice     string
}

const (
	editName = iota
	editPhone
	editGender
	editLocation
	editFieldCount
)

const (
	pwCurrent = iota
	pwNew
	pwConfirm
	pwFieldCount
)

type profileLoadedMsg struct {
	data *model.ProfileData
}

type profileFailedMsg struct {
	err error
}

type profileSavedMsg struct {
	info *model.Profile
	err  error
}

type passwordChangedMsg struct {
	err error
}

// NewProfilePage creates the profile view.
func NewProfilePage(deps *Deps) *ProfilePage {
	return &ProfilePage{
		deps: deps,
		keys: DefaultKeyMap(),
	}
}

func (p *ProfilePage) ID() string { return PageProfile }

func (p *ProfilePage) Init() tea.Cmd {
	p.mode = profileViewing
	p.loading = true
	p.submitting = false
	p.errMsg = ""
	p.notice = ""

	client := p.deps.API
	return tea.Batch(func() tea.Msg {
		data, err := client.Profile(context.Background())
		if err != nil {
			return profileFailedMsg{err: err}
		}
		return profileLoadedMsg{data: data}
	}, spinnerTick())
}

func (p *ProfilePage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case spinnerTickMsg:
		if p.loading || p.submitting {
			p.frame++
			return spinnerTick(), nil
		}
		return nil, nil

	case profileLoadedMsg:
		p.loading = false
		p.data = msg.data
		return nil, nil

	case profileFailedMsg:
		p.loading = false
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return p.expireSession()
		}
		p.deps.logger().Warn("profile fetch failed", zap.Error(msg.err))
		p.errMsg = "Couldn't load your profile. Please try again later."
		return nil, nil

	case profileSavedMsg:
		p.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return p.expireSession()
			}
			p.errMsg = profileErrorText(msg.err, "Couldn't save your profile.")
			return nil, nil
		}
		if p.data != nil && msg.info != nil {
			p.data.UserInfo = *msg.info
		}
		p.mode = profileViewing
		p.notice = "Profile updated."
		return nil, nil

	case passwordChangedMsg:
		p.submitting = false
		if msg.err != nil {
			// A wrong current password comes back with the same status as
			// an expired token, so only the bare rejection logs the user out.
			var serr *api.StatusError
			if errors.Is(msg.err, api.ErrUnauthorized) &&
				!(errors.As(msg.err, &serr) && serr.Message == "Current password is incorrect") {
				return p.expireSession()
			}
			p.errMsg = profileErrorText(msg.err, "Couldn't change your password.")
			return nil, nil
		}
		p.mode = profileViewing
		p.notice = "Password changed."
		return nil, nil
	}

	if p.mode != profileViewing {
		return p.updateInputs(msg), nil
	}
	return nil, nil
}

func (p *ProfilePage) expireSession() (tea.Cmd, *PageNav) {
	if err := p.deps.Session.Clear(); err != nil {
		p.deps.logger().Warn("session clear failed", zap.Error(err))
	}
	return nil, &PageNav{PageID: PageLogin, Params: "Your session expired. Please sign in again."}
}

func (p *ProfilePage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if key.Matches(msg, p.keys.ForceQuit) {
		return tea.Quit, nil
	}

	if p.mode != profileViewing {
		return p.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit, nil

	case key.Matches(msg, p.keys.Back):
		return nil, &PageNav{PageID: PageHome}

	case key.Matches(msg, p.keys.Edit):
		if p.data == nil {
			return nil, nil
		}
		p.startEdit()
		return textinput.Blink, nil

	case key.Matches(msg, p.keys.Password):
		p.startPasswordChange()
		return textinput.Blink, nil

	case key.Matches(msg, p.keys.Logout):
		if err := p.deps.Session.Clear(); err != nil {
			p.deps.logger().Warn("session clear failed", zap.Error(err))
		}
		return nil, &PageNav{PageID: PageLogin, Params: "You have been logged out."}
	}

	return nil, nil
}

func (p *ProfilePage) startEdit() {
	info := p.data.UserInfo
	p.labels = []string{"Name", "Phone", "Gender", "Location"}
	p.inputs = make([]textinput.Model, editFieldCount)
	values := []string{info.Name, info.Phone, info.Gender, info.Location}
	for i := range p.inputs {
		in := textinput.New()
		in.CharLimit = 120
		in.SetValue(values[i])
		p.inputs[i] = in
	}
	p.focus = 0
	p.inputs[0].Focus()
	p.mode = profileEditing
	p.errMsg = ""
	p.notice = ""
}

func (p *ProfilePage) startPasswordChange() {
	p.labels = []string{"Current password", "New password", "Confirm new password"}
	p.inputs = make([]textinput.Model, pwFieldCount)
	for i := range p.inputs {
		in := textinput.New()
		in.CharLimit = 120
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
		p.inputs[i] = in
	}
	p.focus = 0
	p.inputs[0].Focus()
	p.mode = profileChangingPassword
	p.errMsg = ""
	p.notice = ""
}

func (p *ProfilePage) handleFormKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Back):
		if !p.submitting {
			p.mode = profileViewing
			p.errMsg = ""
		}
		return nil, nil

	case key.Matches(msg, p.keys.NextField):
		return p.moveFocus(1), nil

	case key.Matches(msg, p.keys.PrevField):
		return p.moveFocus(-1), nil

	case key.Matches(msg, p.keys.Submit):
		if p.focus < len(p.inputs)-1 {
			return p.moveFocus(1), nil
		}
		return p.submitForm(), nil
	}

	return p.updateInputs(msg), nil
}

func (p *ProfilePage) moveFocus(dir int) tea.Cmd {
	n := len(p.inputs)
	p.inputs[p.focus].Blur()
	p.focus = (p.focus + dir + n) % n
	return p.inputs[p.focus].Focus()
}

func (p *ProfilePage) submitForm() tea.Cmd {
	if p.submitting {
		return nil
	}

	client := p.deps.API

	switch p.mode {
	case profileEditing:
		upd := model.ProfileUpdate{
			Name:     p.inputs[editName].Value(),
			Phone:    p.inputs[editPhone].Value(),
			Gender:   p.inputs[editGender].Value(),
			Location: p.inputs[editLocation].Value(),
		}
		p.submitting = true
		p.errMsg = ""
		return tea.Batch(func() tea.Msg {
			info, err := client.UpdateProfile(context.Background(), upd)
			return profileSavedMsg{info: info, err: err}
		}, spinnerTick())

	case profileChangingPassword:
		current := p.inputs[pwCurrent].Value()
		next := p.inputs[pwNew].Value()
		confirm := p.inputs[pwConfirm].Value()
		if current == "" || next == "" {
			p.errMsg = "All password fields are required."
			return nil
		}
		if next != confirm {
			p.errMsg = "New passwords do not match."
			return nil
		}
		p.submitting = true
		p.errMsg = ""
		return tea.Batch(func() tea.Msg {
			return passwordChangedMsg{err: client.ChangePassword(context.Background(), current, next)}
		}, spinnerTick())
	}

	return nil
}

func (p *ProfilePage) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(p.inputs))
	for i := range p.inputs {
		p.inputs[i], cmds[i] = p.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func profileErrorText(err error, fallback string) string {
	var serr *api.StatusError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return fallback
}

func (p *ProfilePage) View(width, height int) string {
	if p.loading {
		return renderLoadingPlaceholder(width, height, "Loading your profile...")
	}

	switch p.mode {
	case profileEditing:
		return p.renderForm(width, height, "Edit profile", "Saving...")
	case profileChangingPassword:
		return p.renderForm(width, height, "Change password", "Changing...")
	}

	return p.renderView(width, height)
}

func (p *ProfilePage) renderForm(width, height int, title, busyMsg string) string {
	lines := []string{
		renderBranding(),
		"",
		titleStyle.Render(title),
		"",
	}
	for i, in := range p.inputs {
		lines = append(lines, inputLabelStyle.Render(p.labels[i]), in.View())
	}
	lines = append(lines, "")

	switch {
	case p.submitting:
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		lines = append(lines, mutedStyle.Render(frame+" "+busyMsg))
	case p.errMsg != "":
		lines = append(lines, errorStyle.Render(p.errMsg))
	}

	lines = append(lines, "", helpStyle.Render("enter/tab: next • enter on last field: save • esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}

func (p *ProfilePage) renderView(width, height int) string {
	lines := []string{renderBranding(), ""}

	if p.data == nil {
		if p.errMsg != "" {
			lines = append(lines, errorStyle.Render(p.errMsg))
		} else {
			lines = append(lines, mutedStyle.Render("No profile data."))
		}
		lines = append(lines, "", helpStyle.Render("esc: back • q: quit"))
		body := lipgloss.JoinVertical(lipgloss.Center, lines...)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
	}

	info := p.data.UserInfo
	stats := p.data.Stats

	header := titleStyle.Render(info.Name)
	if info.Name == "" {
		header = titleStyle.Render(info.Username)
	}
	lines = append(lines, header, labelStyle.Render("@"+info.Username))
	if info.Email != "" {
		lines = append(lines, labelStyle.Render(info.Email))
	}
	lines = append(lines, "")

	statLine := fmt.Sprintf("%s  %s  %s",
		statBadge("meals", fmt.Sprintf("%d", stats.TotalMeals)),
		statBadge("avg rating", fmt.Sprintf("%.1f", stats.AverageRating)),
		statBadge("favorite", orDash(stats.FavoriteCuisine)),
	)
	lines = append(lines, statLine, "")

	if len(p.data.RecentMeals) > 0 {
		lines = append(lines, inputLabelStyle.Render("Recent meals"))
		lines = append(lines, p.renderRatingsChart())
		for _, meal := range p.data.RecentMeals {
			rating := mutedStyle.Render("not rated")
			if meal.Rating != nil {
				rating = starStyle.Render(fmt.Sprintf("%.0f★", *meal.Rating))
			}
			lines = append(lines, fmt.Sprintf("%s %s  %s",
				labelStyle.Render(meal.Date),
				meal.RestaurantName,
				rating,
			))
		}
		lines = append(lines, "")
	}

	switch {
	case p.notice != "":
		lines = append(lines, openStyle.Render(p.notice), "")
	case p.errMsg != "":
		lines = append(lines, errorStyle.Render(p.errMsg), "")
	}

	lines = append(lines, helpStyle.Render("e: edit • w: change password • ctrl+l: log out • esc: back • q: quit"))

	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

// renderRatingsChart draws the recent-meal ratings as a small bar chart,
// oldest on the left.
func (p *ProfilePage) renderRatingsChart() string {
	meals := p.data.RecentMeals

	barStyle := lipgloss.NewStyle().Foreground(ColorCoral).Background(ColorCoral)
	emptyStyle := lipgloss.NewStyle().Foreground(ColorDim).Background(ColorDim)

	chartWidth := len(meals) * 2
	if chartWidth < 10 {
		chartWidth = 10
	}
	bc := barchart.New(chartWidth, 4,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	for i := len(meals) - 1; i >= 0; i-- {
		meal := meals[i]
		value, style := 0.0, emptyStyle
		if meal.Rating != nil {
			value, style = *meal.Rating, barStyle
		}
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: "rating", Value: value, Style: style},
			},
		})
	}

	bc.Draw()
	return bc.View()
}

func statBadge(label, value string) string {
	return priceStyle.Render(value) + " " + labelStyle.Render(label)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
