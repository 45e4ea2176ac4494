// Package embedded хранит ресурсы, вшиваемые в бинарник: иконки трея
// для трёх состояний приложения. Файлы создаются генератором
// scripts/generate_icons.go.
package embedded

import (
	_ "embed"
)

// IconIdle - серый микрофон, приложение ждёт горячую клавишу.
//
//go:embed icon_idle.png
var IconIdle []byte

// IconRecording - красный микрофон, идёт запись.
//
//go:embed icon_recording.png
var IconRecording []byte

// IconProcessing - оранжевый микрофон, идёт распознавание.
//
//go:embed icon_processing.png
var IconProcessing []byte
