package notify

import (
	"sync"
	"testing"
)

// TestSetEnabledConcurrent проверяет что переключение флага из одной
// горутины не гонится с чтением из других.
func TestSetEnabledConcurrent(t *testing.T) {
	n := New(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					n.SetEnabled(j%2 == 0)
				} else {
					n.Enabled()
				}
			}
		}(i)
	}
	wg.Wait()

	n.SetEnabled(true)
	if !n.Enabled() {
		t.Fatal("Enabled() = false после SetEnabled(true)")
	}
}
