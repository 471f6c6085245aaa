package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
	"retouch-bot/internal/infrastructure/host"
)

const (
	callbackClear      = "clear"
	callbackCreateMask = "mask"
)

// sender часть tgbotapi.BotAPI, которой пользуются хост и уведомления
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// previewer строит картинку с подсветкой маски
type previewer interface {
	Highlight(document, mask []byte) ([]byte, error)
}

// chatHost активный документ чата лежит в хранилище, результаты уходят в чат файлами
type chatHost struct {
	chatID    int64
	store     port.DocumentStore
	sender    sender
	previewer previewer
	log       *zap.Logger
}

func (h *chatHost) CaptureActiveDocument(ctx context.Context) ([]byte, error) {
	return h.store.Get(ctx, h.chatID)
}

func (h *chatHost) PlaceImage(ctx context.Context, data []byte, label string) (bool, error) {
	doc := tgbotapi.NewDocument(h.chatID, tgbotapi.FileBytes{Name: fileName(label), Bytes: data})
	doc.Caption = label
	if _, err := h.sender.Send(doc); err != nil {
		return false, fmt.Errorf("send layer: %w", err)
	}

	if h.previewer != nil && entity.IsMaskLabel(label) {
		h.sendPreview(ctx, data, label)
	}
	return true, nil
}

// sendPreview превью необязательно, ошибки только логируются
func (h *chatHost) sendPreview(ctx context.Context, mask []byte, label string) {
	document, err := h.store.Get(ctx, h.chatID)
	if err != nil || document == nil {
		return
	}
	preview, err := h.previewer.Highlight(document, mask)
	if err != nil {
		h.log.Warn("preview failed", zap.Int64("chat_id", h.chatID), zap.Error(err))
		return
	}
	photo := tgbotapi.NewPhoto(h.chatID, tgbotapi.FileBytes{Name: "preview.png", Bytes: preview})
	photo.Caption = "👁 " + label
	if _, err := h.sender.Send(photo); err != nil {
		h.log.Warn("preview send failed", zap.Int64("chat_id", h.chatID), zap.Error(err))
	}
}

func fileName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, label)
	return name + ".png"
}

// chatNotifier статусы сборщика и сценария маски в виде сообщений чата
type chatNotifier struct {
	chatID int64
	sender sender
	log    *zap.Logger
}

func (n *chatNotifier) Notify(_ context.Context, notice entity.Notice) {
	msg := tgbotapi.NewMessage(n.chatID, formatNotice(notice))
	if notice.HasPoints() {
		msg.ReplyMarkup = pointsKeyboard()
	}
	if _, err := n.sender.Send(msg); err != nil {
		n.log.Error("send notice failed", zap.Int64("chat_id", n.chatID), zap.Error(err))
	}
}

// formatNotice текст статуса со списком точек
func formatNotice(notice entity.Notice) string {
	if !notice.HasPoints() {
		return notice.Text
	}
	var b strings.Builder
	b.WriteString(notice.Text)
	b.WriteString("\n\n📍 Точки:")
	for i, p := range notice.Points {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p)
	}
	return b.String()
}

// pointsKeyboard кнопки, которые имеют смысл только при наличии точек
func pointsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧹 Очистить", callbackClear),
			tgbotapi.NewInlineKeyboardButtonData("✂️ Создать маску", callbackCreateMask),
		),
	)
}

var (
	_ host.Host     = (*chatHost)(nil)
	_ port.Notifier = (*chatNotifier)(nil)
)
