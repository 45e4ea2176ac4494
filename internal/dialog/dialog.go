// Package dialog показывает системные диалоги выбора модели через zenity.
package dialog

import (
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"sotto/internal/models"
)

const appTitle = "Sotto"

// PickModel показывает список моделей и возвращает ID выбранной.
// Возвращает пустую строку, если пользователь отменил выбор.
func PickModel(title string, infos []models.ModelInfo) string {
	if len(infos) == 0 {
		Info("Нет доступных моделей")
		return ""
	}

	items := make([]string, len(infos))
	for i, info := range infos {
		items[i] = fmt.Sprintf("%s (%s)", info.Name, formatSize(info.Size))
	}

	choice, err := zenity.List(title, items,
		zenity.Title(appTitle),
		zenity.Width(420),
	)
	if err != nil {
		return ""
	}

	for i, item := range items {
		if item == choice {
			return infos[i].ID
		}
	}
	return ""
}

// ConfirmRemove спрашивает подтверждение удаления модели.
func ConfirmRemove(name string) bool {
	return confirm(fmt.Sprintf("Удалить модель «%s»?", name), "Удалить")
}

// ConfirmRefresh спрашивает подтверждение перекачивания модели.
func ConfirmRefresh(name string) bool {
	return confirm(fmt.Sprintf("Перекачать модель «%s» заново?", name), "Перекачать")
}

func confirm(text, okLabel string) bool {
	err := zenity.Question(text,
		zenity.Title(appTitle),
		zenity.OKLabel(okLabel),
		zenity.CancelLabel("Отмена"),
	)
	return err == nil
}

// ShowStatuses показывает состояние всех моделей каталога.
func ShowStatuses(statuses []models.ModelStatus) {
	var b strings.Builder
	for _, st := range statuses {
		b.WriteString(st.Name)
		switch {
		case st.Active:
			b.WriteString(" - активна")
		case st.InProgress:
			if st.TotalBytes > 0 {
				b.WriteString(fmt.Sprintf(" - загрузка %d%%", st.DownloadedBytes*100/st.TotalBytes))
			} else {
				b.WriteString(" - загрузка...")
			}
		case st.Downloaded:
			b.WriteString(" - скачана")
		default:
			b.WriteString(" - не скачана")
		}
		if st.LastError != "" {
			b.WriteString(fmt.Sprintf(" (ошибка: %s)", st.LastError))
		}
		b.WriteString("\n")
	}

	Info(b.String())
}

// Error показывает диалог с ошибкой.
func Error(text string) {
	_ = zenity.Error(text, zenity.Title(appTitle))
}

// Info показывает информационный диалог.
func Info(text string) {
	_ = zenity.Info(text, zenity.Title(appTitle))
}

func formatSize(size int64) string {
	const mb = 1 << 20
	if size >= 1<<30 {
		return fmt.Sprintf("%.1f ГБ", float64(size)/float64(1<<30))
	}
	return fmt.Sprintf("%d МБ", size/mb)
}
