package models

import (
	"errors"
	"sync"
	"testing"
)

// Пробы наличия артефакта для Claim.
func missingArtifact() bool { return false }
func presentArtifact() bool { return true }

// TestClaimRejectsInFlight проверяет что активная загрузка блокирует
// повторный Claim независимо от overwrite.
func TestClaimRejectsInFlight(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("первый claim: %v", err)
	}
	if err := r.Claim("m", missingArtifact, false); !errors.Is(err, ErrDownloadInProgress) {
		t.Fatalf("второй claim = %v, want ErrDownloadInProgress", err)
	}
	if err := r.Claim("m", presentArtifact, true); !errors.Is(err, ErrDownloadInProgress) {
		t.Fatalf("claim с overwrite = %v, want ErrDownloadInProgress", err)
	}
}

// TestClaimRejectsExistingArtifact проверяет что скачанный артефакт
// отклоняется без overwrite и принимается с ним.
func TestClaimRejectsExistingArtifact(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", presentArtifact, false); !errors.Is(err, ErrAlreadyDownloaded) {
		t.Fatalf("claim = %v, want ErrAlreadyDownloaded", err)
	}
	if err := r.Claim("m", presentArtifact, true); err != nil {
		t.Fatalf("claim с overwrite: %v", err)
	}
}

// TestClaimProbesArtifactInsideClaim проверяет что наличие артефакта
// опрашивается самим Claim: артефакт, опубликованный между Finish
// воркера и следующим Claim, отклоняет повторную загрузку.
func TestClaimProbesArtifactInsideClaim(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	r.Finish("m", nil)

	// Воркер опубликовал артефакт атомарным rename: следующая проба
	// видит файл, даже если вызывающий проверял диск раньше.
	exists := false
	probe := func() bool { return exists }
	exists = true

	if err := r.Claim("m", probe, false); !errors.Is(err, ErrAlreadyDownloaded) {
		t.Fatalf("claim = %v, want ErrAlreadyDownloaded", err)
	}
}

// TestClaimSkipsProbeWhenInFlight проверяет что при активной загрузке
// Claim отвечает отказом без обращения к диску.
func TestClaimSkipsProbeWhenInFlight(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}

	probed := false
	probe := func() bool {
		probed = true
		return false
	}

	if err := r.Claim("m", probe, false); !errors.Is(err, ErrDownloadInProgress) {
		t.Fatalf("claim = %v, want ErrDownloadInProgress", err)
	}
	if probed {
		t.Fatal("проба наличия артефакта вызвана при активной загрузке")
	}
}

// TestClaimConcurrent проверяет инвариант "не больше одного воркера":
// из N одновременных Claim принимается ровно один.
func TestClaimConcurrent(t *testing.T) {
	r := NewRegistry()

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.Claim("m", missingArtifact, false)
		}()
	}
	wg.Wait()
	close(results)

	accepted, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrDownloadInProgress):
			rejected++
		default:
			t.Fatalf("неожиданная ошибка claim: %v", err)
		}
	}

	if accepted != 1 {
		t.Fatalf("accepted = %d, want 1", accepted)
	}
	if rejected != workers-1 {
		t.Fatalf("rejected = %d, want %d", rejected, workers-1)
	}
}

// TestClaimAfterFinish проверяет что после завершения загрузки можно
// сделать новый Claim (повтор после ошибки - решение вызывающего).
func TestClaimAfterFinish(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	r.Finish("m", errors.New("обрыв сети"))

	rec, ok := r.Get("m")
	if !ok || rec.Status != StatusFailed {
		t.Fatalf("запись = %+v, want StatusFailed", rec)
	}
	if rec.Err == "" {
		t.Fatal("сообщение об ошибке не записано")
	}

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("повторный claim после ошибки: %v", err)
	}
}

// TestUpdateProgress проверяет обновление счётчиков и no-op для
// отсутствующей записи.
func TestUpdateProgress(t *testing.T) {
	r := NewRegistry()

	// Записи нет - не должно паниковать и создавать запись
	r.UpdateProgress("ghost", 10, 100)
	if _, ok := r.Get("ghost"); ok {
		t.Fatal("UpdateProgress создал запись для отсутствующей загрузки")
	}

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	r.UpdateProgress("m", 50, 200)

	rec, _ := r.Get("m")
	if rec.Downloaded != 50 || rec.Total != 200 {
		t.Fatalf("счётчики = %d/%d, want 50/200", rec.Downloaded, rec.Total)
	}
	if rec.Status != StatusDownloading {
		t.Fatalf("статус = %s, want downloading", rec.Status)
	}
}

// TestFinishKeepsCounters проверяет что Finish не трогает счётчики.
func TestFinishKeepsCounters(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("m", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	r.UpdateProgress("m", 200, 200)
	r.Finish("m", nil)

	rec, _ := r.Get("m")
	if rec.Status != StatusCompleted {
		t.Fatalf("статус = %s, want completed", rec.Status)
	}
	if rec.Downloaded != 200 || rec.Total != 200 {
		t.Fatalf("счётчики = %d/%d, want 200/200", rec.Downloaded, rec.Total)
	}
}

// TestSnapshotIsCopy проверяет что снимок не связан с внутренней картой.
func TestSnapshotIsCopy(t *testing.T) {
	r := NewRegistry()

	if err := r.Claim("a", missingArtifact, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	snap := r.Snapshot()
	snap["a"] = DownloadRecord{Status: StatusFailed}
	delete(snap, "a")

	rec, ok := r.Get("a")
	if !ok || rec.Status != StatusDownloading {
		t.Fatalf("внутренняя запись изменилась через снимок: %+v", rec)
	}
}
