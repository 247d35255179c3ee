package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func press(m tea.Model, keys ...string) (ConfirmModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, cmd = m.Update(msg)
	}
	return m.(ConfirmModel), cmd
}

func TestConfirmModelDefaultsToNo(t *testing.T) {
	m, cmd := press(ConfirmModel{Prompt: "Deploy to amoy?"}, "enter")
	assert.True(t, m.Decided)
	assert.False(t, m.Answer)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestConfirmModelToggleAndAccept(t *testing.T) {
	m, _ := press(ConfirmModel{Prompt: "Deploy?"}, "right", "enter")
	assert.True(t, m.Answer)
}

func TestConfirmModelDirectAnswers(t *testing.T) {
	m, _ := press(ConfirmModel{}, "y")
	assert.True(t, m.Answer)
	m, _ = press(ConfirmModel{}, "right", "n")
	assert.False(t, m.Answer)
	m, _ = press(ConfirmModel{}, "right", "esc")
	assert.False(t, m.Answer)
	assert.True(t, m.Decided)
}

func TestConfirmModelIgnoresOtherMessages(t *testing.T) {
	m, cmd := ConfirmModel{Prompt: "Deploy?"}.Update(tea.WindowSizeMsg{Width: 80})
	assert.Nil(t, cmd)
	assert.False(t, m.(ConfirmModel).Decided)
	assert.Contains(t, m.View(), "Deploy?")
}

func TestConfirmLine(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		var out bytes.Buffer
		assert.Equal(t, want, ConfirmLine(strings.NewReader(in), &out, "Deploy?"), "%q", in)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestSpinnerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out bytes.Buffer
	s := NewSpinnerTo(&out, "deploying")
	s.Start()
	s.Update("step 2/22")
	s.StopWithMsg("done")
	s.Stop()
	assert.Contains(t, out.String(), "done")
}
