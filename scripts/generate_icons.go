//go:build ignore

// Генератор иконок трея Sotto: микрофон-капсула на полупрозрачном
// диске, один цвет на состояние.
// Запуск: go run scripts/generate_icons.go [dir]
package main

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
)

func main() {
	dir := "embedded"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Не удалось создать директорию %s: %v", dir, err)
	}

	icons := []struct {
		name string
		c    color.NRGBA
	}{
		{"icon_idle.png", color.NRGBA{128, 128, 128, 255}},      // ожидание
		{"icon_recording.png", color.NRGBA{220, 50, 47, 255}},   // запись
		{"icon_processing.png", color.NRGBA{230, 140, 30, 255}}, // распознавание
	}

	for _, icon := range icons {
		path := filepath.Join(dir, icon.name)
		if err := writeIcon(path, icon.c); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", icon.name, err)
		}
		log.Printf("Создан: %s", path)
	}
}

func writeIcon(path string, c color.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, drawMicrophone(c))
}

// drawMicrophone рисует капсулу микрофона с ножкой и подставкой;
// фоновый диск остаётся полупрозрачным, чтобы силуэт читался и на
// светлой, и на тёмной панели.
func drawMicrophone(c color.NRGBA) *image.NRGBA {
	const size = 64
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	center := float64(size)/2 - 0.5
	discRadius := float64(size) * 0.42

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			bx := math.Abs(float64(x) - center)
			by := float64(y) - center

			var alpha uint8

			// Капсула: прямоугольник со скруглёнными торцами
			if by >= -20 && by <= 8 && bx <= 11 {
				switch {
				case by < -12:
					if math.Hypot(bx, by+12) <= 11 {
						alpha = 255
					}
				case by > 0:
					if math.Hypot(bx, by) <= 11 {
						alpha = 255
					}
				default:
					alpha = 255
				}
			}
			// Ножка
			if by >= 12 && by <= 22 && bx <= 2.5 {
				alpha = 255
			}
			// Подставка
			if by >= 22 && by <= 26 && bx <= 10 {
				alpha = 255
			}
			// Полупрозрачный диск-подложка
			if alpha == 0 && math.Hypot(float64(x)-center, by) <= discRadius {
				alpha = 40
			}

			img.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, alpha})
		}
	}

	return img
}
