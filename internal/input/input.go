// Package input предоставляет вставку текста в позицию курсора.
package input

// Inserter вставляет текст в активное поле ввода.
// Механизм: сохранить буфер обмена, записать туда текст, симулировать
// вставку, вернуть прежнее содержимое буфера.
type Inserter interface {
	// Insert вставляет текст в текущее активное поле.
	Insert(text string) error
}

// New создаёт платформо-специфичный Inserter.
func New() (Inserter, error) {
	return newInserter()
}
