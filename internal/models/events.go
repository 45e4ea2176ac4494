package models

// EventStatus - тег состояния в событии прогресса.
type EventStatus string

const (
	EventQueued      EventStatus = "queued"
	EventStarted     EventStatus = "started"
	EventDownloading EventStatus = "downloading"
	EventCompleted   EventStatus = "completed"
	EventError       EventStatus = "error"
	EventRemoved     EventStatus = "removed"
	EventActive      EventStatus = "active"
	EventRefreshing  EventStatus = "refreshing"
)

// Event - событие жизненного цикла модели для трея и уведомлений.
// Percent равен -1, пока общий размер неизвестен.
type Event struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Percent    int
	Status     EventStatus
	Err        string
}

// percent возвращает грубый процент загрузки или -1.
func percent(downloaded, total int64) int {
	if total <= 0 {
		return -1
	}
	p := int(downloaded * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}
