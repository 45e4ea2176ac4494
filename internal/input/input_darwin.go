//go:build darwin

package input

import (
	"os/exec"
	"strings"
	"time"
)

type darwinInserter struct{}

func newInserter() (Inserter, error) {
	return &darwinInserter{}, nil
}

func (t *darwinInserter) Insert(text string) error {
	original, hadClipboard := readClipboard()

	if err := writeClipboard(text); err != nil {
		return err
	}

	// Даём буферу обновиться и пользователю отпустить Option,
	// иначе получится Cmd+Option+V
	time.Sleep(150 * time.Millisecond)

	// Cmd+V через System Events
	cmd := exec.Command("osascript", "-e",
		`tell application "System Events" to keystroke "v" using command down`)
	if err := cmd.Run(); err != nil {
		return err
	}

	time.Sleep(50 * time.Millisecond)

	if hadClipboard {
		writeClipboard(original)
	}

	return nil
}

func readClipboard() (string, bool) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

func writeClipboard(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
