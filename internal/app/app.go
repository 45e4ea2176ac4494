// Package app связывает аудиосессию, распознавание, модели, трей и
// горячую клавишу в единое приложение.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sotto/internal/audio"
	"sotto/internal/config"
	"sotto/internal/dialog"
	"sotto/internal/hotkey"
	"sotto/internal/input"
	"sotto/internal/models"
	"sotto/internal/notify"
	"sotto/internal/speech"
	"sotto/internal/tray"
)

// App - главный объект приложения.
type App struct {
	cfg      *config.Config
	manager  *models.Manager
	runtime  *speech.Runtime
	session  *audio.Session
	inserter input.Inserter
	notifier *notify.Notifier
	tray     *tray.Tray
	hotkey   *hotkey.Handler

	stopWatchdog func()

	mu          sync.Mutex
	lastPercent int
}

// New создаёт приложение и инициализирует все подсистемы.
func New() (*App, error) {
	cfg := config.New()

	manager, err := models.NewManager()
	if err != nil {
		return nil, fmt.Errorf("менеджер моделей: %w", err)
	}

	session, err := audio.NewSession()
	if err != nil {
		return nil, fmt.Errorf("аудиосессия: %w", err)
	}

	inserter, err := input.New()
	if err != nil {
		return nil, fmt.Errorf("вставка текста: %w", err)
	}

	a := &App{
		cfg:         cfg,
		manager:     manager,
		runtime:     speech.NewRuntime(manager),
		session:     session,
		inserter:    inserter,
		notifier:    notify.New(cfg.NotificationsEnabled()),
		lastPercent: -1,
	}

	a.tray = tray.New(tray.Callbacks{
		OnDownloadModel:       a.menuDownload,
		OnSwitchModel:         a.menuSwitch,
		OnRefreshModel:        a.menuRefresh,
		OnRemoveModel:         a.menuRemove,
		OnShowStatuses:        a.menuStatuses,
		OnNotificationsToggle: a.menuToggleNotifications,
		OnQuit:                a.Close,
	})
	a.hotkey = hotkey.New(a.onPress, a.onRelease)

	manager.OnEvent(a.onModelEvent)

	return a, nil
}

// Run запускает приложение. Блокируется до выхода из трея.
func (a *App) Run() {
	a.tray.Run(func() {
		go a.startup()
	})
}

// startup регистрирует горячую клавишу, активирует сохранённую модель
// и запускает сторожевой цикл модели по умолчанию.
func (a *App) startup() {
	if err := a.hotkey.Register(a.cfg.Hotkey()); err != nil {
		log.Printf("Не удалось зарегистрировать горячую клавишу %s: %v", a.cfg.Hotkey(), err)
		dialog.Error(fmt.Sprintf("Горячая клавиша %s недоступна: %v", a.cfg.Hotkey(), err))
	}

	modelID := a.cfg.ModelID()
	if modelID == "" {
		modelID = models.DefaultModelID()
	}

	if err := a.runtime.Activate(modelID); err != nil {
		log.Printf("Модель %s не активирована: %v", modelID, err)
		if errors.Is(err, models.ErrModelNotDownloaded) {
			if derr := a.manager.StartDownload(modelID); derr != nil && !errors.Is(derr, models.ErrDownloadInProgress) {
				log.Printf("Не удалось начать загрузку %s: %v", modelID, derr)
			}
		}
	}

	a.stopWatchdog = a.manager.StartWatchdog(models.DefaultModelID(), models.WatchdogInterval)
}

// onPress вызывается при нажатии горячей клавиши: начинаем запись.
func (a *App) onPress() {
	if err := a.session.Start(); err != nil {
		log.Printf("Запись не началась: %v", err)
		a.notifier.Error(fmt.Sprintf("Микрофон недоступен: %v", err))
		return
	}
	a.tray.SetState(tray.StateRecording)
}

// onRelease вызывается при отпускании: останавливаем запись,
// распознаём и вставляем текст в активное окно.
func (a *App) onRelease() {
	samples := a.session.Stop()
	if samples == nil {
		return
	}

	a.tray.SetState(tray.StateProcessing)
	defer a.tray.SetState(tray.StateIdle)

	start := time.Now()
	text := a.runtime.Transcribe(samples, a.cfg.Language())
	if text == "" {
		a.notifier.Empty()
		return
	}
	log.Printf("Распознано за %v: %q", time.Since(start).Round(time.Millisecond), text)

	if err := a.inserter.Insert(text); err != nil {
		log.Printf("Вставка не удалась: %v", err)
		a.notifier.Error(fmt.Sprintf("Не удалось вставить текст: %v", err))
		return
	}
	a.notifier.Inserted(text)
}

// onModelEvent обрабатывает события жизненного цикла моделей: обновляет
// строку статуса в трее и перезагружает движок после перекачивания
// активной модели.
func (a *App) onModelEvent(ev models.Event) {
	info, err := models.Get(ev.ModelID)
	if err != nil {
		return
	}

	switch ev.Status {
	case models.EventDownloading:
		a.mu.Lock()
		changed := ev.Percent != a.lastPercent
		a.lastPercent = ev.Percent
		a.mu.Unlock()
		if changed {
			if ev.Percent >= 0 {
				a.tray.SetDownloadProgress(fmt.Sprintf("Загрузка %s: %d%%", info.Name, ev.Percent))
			} else {
				a.tray.SetDownloadProgress(fmt.Sprintf("Загрузка %s...", info.Name))
			}
		}
	case models.EventCompleted:
		a.mu.Lock()
		a.lastPercent = -1
		a.mu.Unlock()
		a.tray.SetState(tray.StateIdle)
		a.notifier.DownloadCompleted(info.Name)
		a.reloadIfNeeded(ev.ModelID)
	case models.EventError:
		a.mu.Lock()
		a.lastPercent = -1
		a.mu.Unlock()
		a.tray.SetState(tray.StateIdle)
		a.notifier.DownloadFailed(info.Name, ev.Err)
	}
}

// reloadIfNeeded активирует модель после загрузки, если она выбрана в
// настройках или является активной (случай перекачивания).
func (a *App) reloadIfNeeded(modelID string) {
	want := a.cfg.ModelID()
	if want == "" {
		want = models.DefaultModelID()
	}
	if modelID != want && modelID != a.runtime.ActiveModelID() {
		return
	}
	if err := a.runtime.Activate(modelID); err != nil {
		log.Printf("Модель %s не активирована после загрузки: %v", modelID, err)
		return
	}
	if info, err := models.Get(modelID); err == nil {
		a.notifier.ModelActivated(info.Name)
	}
}

func (a *App) menuDownload() {
	var missing []models.ModelInfo
	for _, info := range models.Catalog {
		if !a.manager.IsDownloaded(info) {
			missing = append(missing, info)
		}
	}
	id := dialog.PickModel("Выберите модель для загрузки", missing)
	if id == "" {
		return
	}
	if err := a.manager.StartDownload(id); err != nil {
		dialog.Error(fmt.Sprintf("Загрузка не началась: %v", err))
	}
}

func (a *App) menuSwitch() {
	id := dialog.PickModel("Выберите активную модель", a.manager.ListDownloaded())
	if id == "" {
		return
	}
	a.cfg.SetModelID(id)
	// Загрузка большой модели занимает секунды - не держим цикл меню
	go func() {
		if err := a.runtime.Activate(id); err != nil {
			dialog.Error(fmt.Sprintf("Не удалось активировать модель: %v", err))
			return
		}
		if info, err := models.Get(id); err == nil {
			a.notifier.ModelActivated(info.Name)
		}
	}()
}

func (a *App) menuRefresh() {
	id := dialog.PickModel("Выберите модель для перекачивания", a.manager.ListDownloaded())
	if id == "" {
		return
	}
	info, err := models.Get(id)
	if err != nil {
		return
	}
	if !dialog.ConfirmRefresh(info.Name) {
		return
	}
	if err := a.manager.RefreshDownload(id); err != nil {
		dialog.Error(fmt.Sprintf("Перекачивание не началось: %v", err))
	}
}

func (a *App) menuRemove() {
	active := a.runtime.ActiveModelID()
	var removable []models.ModelInfo
	for _, info := range a.manager.ListDownloaded() {
		if info.ID != active {
			removable = append(removable, info)
		}
	}
	id := dialog.PickModel("Выберите модель для удаления", removable)
	if id == "" {
		return
	}
	info, err := models.Get(id)
	if err != nil {
		return
	}
	if !dialog.ConfirmRemove(info.Name) {
		return
	}
	if err := a.manager.Remove(id, active); err != nil {
		dialog.Error(fmt.Sprintf("Не удалось удалить модель: %v", err))
	}
}

func (a *App) menuStatuses() {
	dialog.ShowStatuses(a.manager.Statuses(a.runtime.ActiveModelID()))
}

func (a *App) menuToggleNotifications() bool {
	enabled := a.cfg.ToggleNotifications()
	a.notifier.SetEnabled(enabled)
	return enabled
}

// Close освобождает ресурсы. Вызывается при выходе из трея.
func (a *App) Close() {
	if a.stopWatchdog != nil {
		a.stopWatchdog()
		a.stopWatchdog = nil
	}
	if err := a.hotkey.Unregister(); err != nil {
		log.Printf("Ошибка снятия горячей клавиши: %v", err)
	}
	a.session.Close()
	a.runtime.Close()
	log.Println("Приложение завершено")
}
