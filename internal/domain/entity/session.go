package entity

// CollectorState состояние сбора точек
type CollectorState string

const (
	StateIdle       CollectorState = "idle"       // Режим сбора точек не запущен
	StateCollecting CollectorState = "collecting" // Идёт сбор точек
)

// NoticeLevel уровень статусного сообщения
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice статус для пользователя вместе со снимком точек
type Notice struct {
	Level  NoticeLevel
	Text   string
	Points []AnnotationPoint
}

// HasPoints включает элементы интерфейса, которым нужны точки
func (n Notice) HasPoints() bool {
	return len(n.Points) > 0
}
