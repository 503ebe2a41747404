package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	hintStyle = lipgloss.NewStyle().Foreground(subtle)

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1)
)

type wizardAction string

const (
	actionSubmit wizardAction = "submit"
	actionBack   wizardAction = "back"
	actionCancel wizardAction = "cancel"
)

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func printStep(title, step string) {
	fmt.Println(headerStyle.Render(title))
	fmt.Println(stepStyle.Render(step))
}

func printSummary(lines ...string) {
	fmt.Println(summaryStyle.Render(strings.Join(lines, "\n")))
}

// inlineMessage adapts a validator that returns a user-facing message to
// huh's error-returning Validate hook.
func inlineMessage(check func(string) string) func(string) error {
	return func(s string) error {
		if msg := check(s); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

// chooseAction asks what to do on the confirm step. lastError, when set,
// is the server message from the previous attempt.
func chooseAction(lastError string) (wizardAction, error) {
	title := "Submit this request?"
	if lastError != "" {
		title = "Submission failed: " + lastError
	}

	var action wizardAction
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[wizardAction]().
				Title(title).
				Options(
					huh.NewOption("Submit", actionSubmit),
					huh.NewOption("Back to details", actionBack),
					huh.NewOption("Cancel", actionCancel),
				).
				Value(&action),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return actionCancel, nil
	}
	return action, err
}

// readPassword reads a secret without echo on a terminal, or one line from
// stdin when input is piped.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if isInteractive() {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("unable to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("unable to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
