package models

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

// testManager создаёт менеджер во временной директории.
func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerDir(t.TempDir())
	if err != nil {
		t.Fatalf("создание менеджера: %v", err)
	}
	return m
}

// TestDownloadWorkerSuccess проверяет протокол воркера: после успеха
// финальный артефакт существует, временный файл удалён, реестр в
// состоянии Completed.
func TestDownloadWorkerSuccess(t *testing.T) {
	payload := bytes.Repeat([]byte("whisper"), 10000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	m := testManager(t)
	info := ModelInfo{ID: "test", Name: "Test", Filename: "test.bin", URL: server.URL, Size: int64(len(payload))}

	var events []Event
	m.OnEvent(func(ev Event) { events = append(events, ev) })

	if err := m.registry.Claim(info.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	m.download(info, false)

	finalPath := m.ArtifactPath(info)
	got, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("чтение артефакта: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("содержимое артефакта не совпадает: %d байт, want %d", len(got), len(payload))
	}
	if _, err := os.Stat(finalPath + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("временный файл не удалён после успеха")
	}

	rec, ok := m.registry.Get(info.ID)
	if !ok || rec.Status != StatusCompleted {
		t.Fatalf("запись реестра = %+v, want StatusCompleted", rec)
	}
	if rec.Downloaded != int64(len(payload)) {
		t.Fatalf("downloaded = %d, want %d", rec.Downloaded, len(payload))
	}

	if len(events) == 0 || events[len(events)-1].Status != EventCompleted {
		t.Fatalf("последнее событие = %+v, want completed", events[len(events)-1])
	}
	if events[len(events)-1].Percent != 100 {
		t.Fatalf("percent = %d, want 100", events[len(events)-1].Percent)
	}
}

// TestDownloadWorkerHTTPError проверяет что после ошибки сервера не
// существует ни финального, ни временного файла.
func TestDownloadWorkerHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	m := testManager(t)
	info := ModelInfo{ID: "test", Name: "Test", Filename: "test.bin", URL: server.URL, Size: 100}

	if err := m.registry.Claim(info.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	m.download(info, false)

	if _, err := os.Stat(m.ArtifactPath(info)); !os.IsNotExist(err) {
		t.Fatal("финальный артефакт существует после ошибки")
	}
	if _, err := os.Stat(m.ArtifactPath(info) + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("временный файл существует после ошибки")
	}

	rec, _ := m.registry.Get(info.ID)
	if rec.Status != StatusFailed {
		t.Fatalf("статус = %s, want failed", rec.Status)
	}
	if rec.Err == "" {
		t.Fatal("сообщение об ошибке не записано")
	}
}

// TestDownloadWorkerNetworkError проверяет обработку сетевой ошибки
// до первого байта.
func TestDownloadWorkerNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // соединение будет отклонено

	m := testManager(t)
	info := ModelInfo{ID: "test", Name: "Test", Filename: "test.bin", URL: url, Size: 100}

	if err := m.registry.Claim(info.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	m.download(info, false)

	rec, _ := m.registry.Get(info.ID)
	if rec.Status != StatusFailed {
		t.Fatalf("статус = %s, want failed", rec.Status)
	}
	if _, err := os.Stat(m.ArtifactPath(info)); !os.IsNotExist(err) {
		t.Fatal("финальный артефакт существует после сетевой ошибки")
	}
}

// TestDownloadWorkerRefresh проверяет что принудительная перекачка
// заменяет существующий артефакт.
func TestDownloadWorkerRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("new-bytes"))
	}))
	defer server.Close()

	m := testManager(t)
	info := ModelInfo{ID: "test", Name: "Test", Filename: "test.bin", URL: server.URL, Size: 9}

	if err := os.WriteFile(m.ArtifactPath(info), []byte("old-bytes"), 0644); err != nil {
		t.Fatalf("запись старого артефакта: %v", err)
	}

	if err := m.registry.Claim(info.ID, presentArtifact, true); err != nil {
		t.Fatalf("claim с overwrite: %v", err)
	}
	m.download(info, true)

	got, err := os.ReadFile(m.ArtifactPath(info))
	if err != nil {
		t.Fatalf("чтение артефакта: %v", err)
	}
	if string(got) != "new-bytes" {
		t.Fatalf("содержимое = %q, want %q", got, "new-bytes")
	}
}

// TestStartDownloadUnknownModel проверяет синхронный отказ для модели
// вне каталога.
func TestStartDownloadUnknownModel(t *testing.T) {
	m := testManager(t)
	if err := m.StartDownload("no-such-model"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("err = %v, want ErrUnknownModel", err)
	}
}

// TestStartDownloadSeesPublishedArtifact проверяет что артефакт,
// опубликованный только что завершившимся воркером, отклоняет
// повторный StartDownload: состояние диска читается внутри Claim, а
// не до него.
func TestStartDownloadSeesPublishedArtifact(t *testing.T) {
	m := testManager(t)
	info, err := Get(DefaultModelID())
	if err != nil {
		t.Fatalf("каталог: %v", err)
	}

	if err := m.registry.Claim(info.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// Воркер публикует артефакт rename-ом и лишь потом вызывает Finish
	if err := os.WriteFile(m.ArtifactPath(info), []byte("weights"), 0644); err != nil {
		t.Fatalf("запись артефакта: %v", err)
	}
	m.registry.Finish(info.ID, nil)

	if err := m.StartDownload(info.ID); !errors.Is(err, ErrAlreadyDownloaded) {
		t.Fatalf("err = %v, want ErrAlreadyDownloaded", err)
	}
}

// TestRemoveActiveModel проверяет что активная модель не удаляется и
// её артефакт остаётся на диске.
func TestRemoveActiveModel(t *testing.T) {
	m := testManager(t)
	info := Catalog[0]

	path := m.ArtifactPath(info)
	if err := os.WriteFile(path, []byte("model"), 0644); err != nil {
		t.Fatalf("запись артефакта: %v", err)
	}

	if err := m.Remove(info.ID, info.ID); !errors.Is(err, ErrModelActive) {
		t.Fatalf("err = %v, want ErrModelActive", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("артефакт активной модели пропал: %v", err)
	}
}

// TestRemoveMidDownload проверяет отказ удаления во время загрузки.
func TestRemoveMidDownload(t *testing.T) {
	m := testManager(t)
	info := Catalog[0]

	if err := m.registry.Claim(info.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := m.Remove(info.ID, ""); !errors.Is(err, ErrDownloadInProgress) {
		t.Fatalf("err = %v, want ErrDownloadInProgress", err)
	}
}

// TestRemove проверяет удаление скачанной неактивной модели.
func TestRemove(t *testing.T) {
	m := testManager(t)
	info := Catalog[0]

	path := m.ArtifactPath(info)
	if err := os.WriteFile(path, []byte("model"), 0644); err != nil {
		t.Fatalf("запись артефакта: %v", err)
	}

	var removed []Event
	m.OnEvent(func(ev Event) { removed = append(removed, ev) })

	if err := m.Remove(info.ID, "other-model"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("артефакт существует после удаления")
	}
	if len(removed) != 1 || removed[0].Status != EventRemoved {
		t.Fatalf("события = %+v, want одно removed", removed)
	}

	if err := m.Remove(info.ID, ""); !errors.Is(err, ErrModelNotDownloaded) {
		t.Fatalf("повторное удаление = %v, want ErrModelNotDownloaded", err)
	}
}

// TestStatuses проверяет сводку: флаги, счётчики и не больше одной
// активной модели.
func TestStatuses(t *testing.T) {
	m := testManager(t)

	downloaded := Catalog[0]
	if err := os.WriteFile(m.ArtifactPath(downloaded), []byte("model"), 0644); err != nil {
		t.Fatalf("запись артефакта: %v", err)
	}

	inProgress := Catalog[1]
	if err := m.registry.Claim(inProgress.ID, missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	m.registry.UpdateProgress(inProgress.ID, 30, 120)

	statuses := m.Statuses(downloaded.ID)
	if len(statuses) != len(Catalog) {
		t.Fatalf("len(statuses) = %d, want %d", len(statuses), len(Catalog))
	}

	active := 0
	byID := make(map[string]ModelStatus)
	for _, st := range statuses {
		if st.Active {
			active++
		}
		byID[st.ID] = st
	}
	if active != 1 {
		t.Fatalf("активных моделей = %d, want 1", active)
	}

	if st := byID[downloaded.ID]; !st.Downloaded || !st.Active || st.InProgress {
		t.Fatalf("статус скачанной модели = %+v", st)
	}
	if st := byID[inProgress.ID]; !st.InProgress || st.Downloaded || st.Active {
		t.Fatalf("статус загружаемой модели = %+v", st)
	}
	if st := byID[inProgress.ID]; st.DownloadedBytes != 30 || st.TotalBytes != 120 {
		t.Fatalf("счётчики = %d/%d, want 30/120", st.DownloadedBytes, st.TotalBytes)
	}
}

// TestPercentUnknownTotal проверяет что процент опускается (-1), пока
// общий размер неизвестен.
func TestPercentUnknownTotal(t *testing.T) {
	if p := percent(10, 0); p != -1 {
		t.Fatalf("percent = %d, want -1", p)
	}
	if p := percent(50, 200); p != 25 {
		t.Fatalf("percent = %d, want 25", p)
	}
	if p := percent(300, 200); p != 100 {
		t.Fatalf("percent = %d, want 100", p)
	}
}
