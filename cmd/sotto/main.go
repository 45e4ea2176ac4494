// Sotto - утилита диктовки: удерживайте горячую клавишу, говорите,
// текст вставляется в активное окно.
package main

import (
	"log"

	"sotto/internal/app"
	"sotto/internal/hotkey"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)
	log.Printf("Sotto %s запускается", Version)

	// Горячие клавиши на некоторых платформах требуют главный поток.
	hotkey.RunOnMainThread(run)
}

func run() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("Ошибка инициализации: %v", err)
	}
	a.Run()
}
