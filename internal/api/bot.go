package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "retouch-bot/internal/application"
	"retouch-bot/internal/container"
	"retouch-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я помогаю выделять объекты на изображении по точкам.

📸 Отправьте фото (или картинку файлом), затем отметьте объект точками.

📋 Команды:
/sam — начать выбор точек
/point X Y [fg|bg] — добавить точку
/mask — создать маску
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте изображение, оно станет активным документом
2️⃣ /sam и затем /point X Y — точки на объекте (fg) или на фоне (bg)
3️⃣ /mask — бот пришлёт маску и превью с подсветкой

🎨 Ещё:
/retouch описание — ретушь по тексту
/luts — список LUT
/lut имя [0..1] — применить LUT
/status — состояние бэкенда
/clear, /cancel — сбросить точки`

	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendImage       = "📸 Отправьте изображение или используйте /help."
	msgDocumentSaved   = "📄 Изображение сохранено как активный документ (%d×%d). Отметьте объект: /point X Y"
	msgNotAnImage      = "⚠️ Файл не похож на изображение."
	msgProcessingMask  = "⏳ Создаю маску..."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingError = "⚠️ Не удалось скачать изображение. Попробуйте ещё раз."
)

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	out       sender
	container *container.Container
	sessions  *app.SessionService
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("telegram")
	log.Info("authorized", zap.String("account", api.Self.UserName))

	b := &Bot{
		api:       api,
		out:       api,
		container: c,
		log:       log,
	}
	b.sessions = app.NewSessionService(b.newSession, c.SessionTTL)
	return b, nil
}

func (b *Bot) newSession(chatID int64) *app.Session {
	h := &chatHost{
		chatID:    chatID,
		store:     b.container.Documents,
		sender:    b.out,
		previewer: b.container.Previewer,
		log:       b.log,
	}
	return b.container.NewSession(h, &chatNotifier{chatID: chatID, sender: b.out, log: b.log})
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	evict := time.NewTicker(evictInterval(b.container.SessionTTL))
	defer evict.Stop()

	for {
		select {
		case <-evict.C:
			b.evictIdle(ctx)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.CallbackQuery != nil:
				b.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// evictIdle забывает простаивающие чаты вместе с их документами
func (b *Bot) evictIdle(ctx context.Context) {
	for _, chatID := range b.sessions.EvictIdle() {
		if err := b.container.Documents.Delete(ctx, chatID); err != nil {
			b.log.Warn("document delete failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		b.log.Debug("session evicted", zap.Int64("chat_id", chatID))
	}
}

func evictInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval > time.Minute {
		return interval
	}
	return time.Minute
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Фото или картинка файлом становится активным документом
	if len(msg.Photo) > 0 {
		b.acceptDocument(ctx, msg.Chat.ID, msg.Photo[len(msg.Photo)-1].FileID)
		return
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		b.acceptDocument(ctx, msg.Chat.ID, msg.Document.FileID)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendImage)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess := b.sessions.Get(chatID)
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "sam":
		b.reportErr(chatID, sess.Mask.Collector().Start(ctx))

	case "point":
		x, y, label, err := parsePointArgs(args)
		if err != nil {
			b.reportErr(chatID, err)
			return
		}
		// ошибки разбора сборщик показывает сам
		if _, err := sess.Mask.Collector().AddPoint(ctx, x, y, label); err != nil && !errors.Is(err, entity.ErrInvalidInput) {
			b.reportErr(chatID, err)
		}

	case "clear", "cancel":
		b.reportErr(chatID, sess.Mask.Collector().Clear(ctx))

	case "mask":
		b.createMask(ctx, chatID, sess)

	case "retouch":
		b.async(func() {
			b.sendMessage(chatID, msgProcessing)
			out, err := sess.Retouch.Retouch(ctx, args)
			if err != nil {
				b.reportErr(chatID, err)
				return
			}
			b.sendMessage(chatID, out.Status)
		})

	case "luts":
		b.async(func() {
			luts, err := sess.Retouch.ListLUTs(ctx)
			if err != nil {
				b.reportErr(chatID, err)
				return
			}
			b.sendMessage(chatID, "🎨 Доступные LUT:\n"+strings.Join(luts, "\n"))
		})

	case "lut":
		name, intensity, err := parseLUTArgs(args)
		if err != nil {
			b.reportErr(chatID, err)
			return
		}
		b.async(func() {
			out, err := sess.Retouch.ApplyLUT(ctx, name, intensity)
			if err != nil {
				b.reportErr(chatID, err)
				return
			}
			b.sendMessage(chatID, out.Status)
		})

	case "status":
		b.async(func() { b.sendStatus(ctx, chatID, sess) })

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатия кнопок под статусом точек
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn("callback answer failed", zap.Error(err))
	}
	if cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	sess := b.sessions.Get(chatID)
	switch cq.Data {
	case callbackClear:
		b.reportErr(chatID, sess.Mask.Collector().Clear(ctx))
	case callbackCreateMask:
		b.createMask(ctx, chatID, sess)
	}
}

// createMask запускается в фоне; статус и ошибки приходят через уведомления сценария
func (b *Bot) createMask(ctx context.Context, chatID int64, sess *app.Session) {
	if !sess.Mask.Collector().HasPoints() {
		b.reportErr(chatID, fmt.Errorf("%w: add at least one point first", entity.ErrPrecondition))
		return
	}
	b.async(func() {
		b.sendMessage(chatID, msgProcessingMask)
		if _, err := sess.Mask.CreateMask(ctx); err != nil {
			b.log.Info("mask workflow failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	})
}

func (b *Bot) acceptDocument(ctx context.Context, chatID int64, fileID string) {
	data, err := b.downloadFile(fileID)
	if err != nil {
		b.log.Error("download failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	img, err := b.container.Processor.Decode(data)
	if err != nil {
		b.sendMessage(chatID, msgNotAnImage)
		return
	}
	normalized, err := b.container.Processor.EncodePNG(img)
	if err != nil {
		b.reportErr(chatID, err)
		return
	}
	collector := b.sessions.Get(chatID).Mask.Collector()
	if err := replaceDocument(ctx, b.container.Documents, collector, chatID, normalized); err != nil {
		b.reportErr(chatID, err)
		return
	}

	bounds := img.Bounds()
	b.sendMessage(chatID, fmt.Sprintf(msgDocumentSaved, bounds.Dx(), bounds.Dy()))
}

func (b *Bot) sendStatus(ctx context.Context, chatID int64, sess *app.Session) {
	health, err := sess.Retouch.Health(ctx)
	if err != nil {
		b.reportErr(chatID, err)
		return
	}

	text := fmt.Sprintf("🩺 Бэкенд: %s (%s)", health.Status, health.Device)
	if caps, err := sess.Retouch.Capabilities(ctx); err == nil {
		text += fmt.Sprintf("\n🧠 Модели загружены: %t\n⚙️ Возможности: %s", caps.ModelsLoaded, strings.Join(caps.Capabilities, ", "))
	}
	text += fmt.Sprintf("\n📍 Точек: %d (%s)", sess.Mask.Collector().Size(), sess.Mask.Collector().State())
	b.sendMessage(chatID, text)
}

// async долгие запросы к бэкенду не блокируют цикл обновлений
func (b *Bot) async(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

func (b *Bot) reportErr(chatID int64, err error) {
	if err == nil {
		return
	}
	b.sendMessage(chatID, "❌ "+app.UserMessage(err))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
