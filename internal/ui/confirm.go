package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ConfirmModel is a yes/no prompt. Enter accepts the highlighted choice,
// y and n answer directly.
type ConfirmModel struct {
	Prompt  string
	Danger  bool
	yes     bool
	Answer  bool
	Decided bool
}

func (m ConfirmModel) Init() tea.Cmd { return nil }

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	case "y", "Y":
		m.Answer, m.Decided = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.Answer, m.Decided = false, true
		return m, tea.Quit
	case "enter":
		m.Answer, m.Decided = m.yes, true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.Decided {
		return ""
	}
	style := StyleWarning
	if m.Danger {
		style = StyleError
	}
	yes, no := "  yes  ", "  no  "
	if m.yes {
		yes = StyleSelected.Render(yes)
	} else {
		no = StyleSelected.Render(no)
	}
	return "\n" + style.Render("⚠ "+m.Prompt) + "\n\n  " + yes + "  " + no + "\n\n" +
		StyleMeta.Render("  [ ←→ ] choose   [ Enter ] confirm   [ y / n ] answer") + "\n"
}

// Confirm asks a yes/no question. It runs the interactive prompt when stdin
// is a terminal and falls back to reading a line otherwise. The answer
// defaults to no.
func Confirm(prompt string) (bool, error) {
	return confirm(prompt, false)
}

// ConfirmDanger is like Confirm but styled with the error color.
func ConfirmDanger(prompt string) (bool, error) {
	return confirm(prompt, true)
}

func confirm(prompt string, danger bool) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return ConfirmLine(os.Stdin, os.Stderr, prompt), nil
	}
	final, err := tea.NewProgram(ConfirmModel{Prompt: prompt, Danger: danger}).Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return final.(ConfirmModel).Answer, nil
}

// ConfirmLine prints prompt to w and reads a y/yes answer from r.
func ConfirmLine(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", StyleWarning.Render(prompt))
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
