//go:build linux

package input

import (
	"os"
	"os/exec"
	"strings"
	"time"
)

type linuxInserter struct {
	useWayland bool
}

func newInserter() (Inserter, error) {
	return &linuxInserter{
		useWayland: os.Getenv("WAYLAND_DISPLAY") != "",
	}, nil
}

func (t *linuxInserter) Insert(text string) error {
	// Сохраняем текущее содержимое буфера обмена; ошибка чтения
	// означает пустой буфер - восстанавливать будет нечего.
	original, hadClipboard := t.readClipboard()

	if err := t.writeClipboard(text); err != nil {
		return err
	}

	// Даём буферу обновиться и пользователю отпустить модификаторы
	time.Sleep(100 * time.Millisecond)

	if err := t.paste(); err != nil {
		return err
	}

	// Ждём завершения вставки перед восстановлением буфера
	time.Sleep(50 * time.Millisecond)

	if hadClipboard {
		t.writeClipboard(original)
	}

	return nil
}

func (t *linuxInserter) readClipboard() (string, bool) {
	var cmd *exec.Cmd
	if t.useWayland {
		cmd = exec.Command("wl-paste", "--no-newline")
	} else {
		cmd = exec.Command("xclip", "-selection", "clipboard", "-o")
	}
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (t *linuxInserter) writeClipboard(text string) error {
	var cmd *exec.Cmd
	if t.useWayland {
		cmd = exec.Command("wl-copy")
	} else {
		cmd = exec.Command("xclip", "-selection", "clipboard")
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func (t *linuxInserter) paste() error {
	if t.useWayland {
		return exec.Command("wtype", "-M", "ctrl", "v", "-m", "ctrl").Run()
	}
	return exec.Command("xdotool", "key", "--clearmodifiers", "ctrl+v").Run()
}
