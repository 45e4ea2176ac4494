//go:build windows

package input

import (
	"os/exec"
	"strings"
	"time"
)

type windowsInserter struct{}

func newInserter() (Inserter, error) {
	return &windowsInserter{}, nil
}

func (t *windowsInserter) Insert(text string) error {
	original, hadClipboard := readClipboard()

	if err := writeClipboard(text); err != nil {
		return err
	}

	time.Sleep(100 * time.Millisecond)

	// Ctrl+V через SendKeys
	cmd := exec.Command("powershell", "-NoProfile", "-Command",
		`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('^v')`)
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
	out, err := exec.Command("powershell", "-NoProfile", "-Command", "Get-Clipboard -Raw").Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

func writeClipboard(text string) error {
	cmd := exec.Command("powershell", "-NoProfile", "-Command", "$input | Set-Clipboard")
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
