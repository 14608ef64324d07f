package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aircrew/internal/notify"
	"aircrew/internal/platform/metrics"
	"aircrew/internal/roster/models"
	rosterservice "aircrew/internal/roster/service"
	"aircrew/internal/telegram"
	derrors "aircrew/pkg/domain-errors"
	"aircrew/pkg/requestcontext"
)

// deleteConfirmToken is the literal a user must type to confirm deletion.
const deleteConfirmToken = "УДАЛИТЬ"

// skipToken lets the user skip an optional field.
const skipToken = "нет"

// Handler routes inbound updates through the dialogue state machine.
type Handler struct {
	roster   *rosterservice.Service
	sessions SessionStore
	replies  notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New constructs an intake handler. replies delivers prompts and answers
// back to the originating chat.
func New(roster *rosterservice.Service, sessions SessionStore, replies notify.Notifier, opts ...Option) (*Handler, error) {
	if roster == nil {
		return nil, errors.New("roster service is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if replies == nil {
		return nil, errors.New("reply notifier is required")
	}
	h := &Handler{
		roster:   roster,
		sessions: sessions,
		replies:  replies,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HandleUpdate processes one inbound update. Returned errors are internal
// (store or session failures); user mistakes are answered in-chat and do
// not surface as errors.
func (h *Handler) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	if update == nil || update.Message == nil {
		return nil
	}
	msg := update.Message
	if msg.From != nil && msg.From.IsBot {
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	chatID := msg.Chat.ID
	ctx = requestcontext.WithChatID(ctx, chatID)
	if h.metrics != nil {
		h.metrics.UpdatesHandled.Inc()
	}
	h.logger.DebugContext(ctx, "update received", "chat_id", chatID)

	if strings.HasPrefix(text, "/") {
		return h.handleCommand(ctx, chatID, text)
	}

	session, err := h.sessions.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return h.reply(ctx, chatID, "Не понимаю. Отправьте /help для списка команд.")
	}
	return h.handleStep(ctx, session, text)
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, text string) error {
	command := strings.ToLower(strings.Fields(text)[0])
	// A command always supersedes an unfinished dialogue.
	if err := h.sessions.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	switch command {
	case "/start":
		return h.startRegistration(ctx, chatID)
	case "/cancel":
		return h.reply(ctx, chatID, "Действие отменено.")
	case "/help":
		return h.reply(ctx, chatID, helpText)
	case "/medical":
		return h.startDateDialogue(ctx, chatID, DateVLK,
			"Введите дату ВЛК (ГГГГ-ММ-ДД или ДД.ММ.ГГГГ):")
	case "/check4":
		return h.startDateDialogue(ctx, chatID, DateExercise4,
			"Введите дату проверки по упр.4 КБП:")
	case "/check7":
		return h.startDateDialogue(ctx, chatID, DateExercise7,
			"Введите дату проверки по упр.7 КБП:")
	case "/vacation":
		return h.startDateDialogue(ctx, chatID, DateVacationStart,
			"Введите дату начала отпуска:")
	case "/profile":
		return h.sendProfile(ctx, chatID)
	case "/status":
		return h.sendStatus(ctx, chatID)
	case "/delete":
		return h.startDeletion(ctx, chatID)
	default:
		return h.reply(ctx, chatID, "Неизвестная команда. Отправьте /help.")
	}
}

func (h *Handler) startRegistration(ctx context.Context, chatID int64) error {
	if _, err := h.roster.Profile(ctx, chatID); err == nil {
		return h.reply(ctx, chatID, "Вы уже зарегистрированы в системе. Отправьте /profile для просмотра данных.")
	} else if !derrors.Is(err, derrors.CodeNotFound) {
		return err
	}

	if err := h.sessions.Put(ctx, &Session{ChatID: chatID, State: StateAwaitingSurname}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return h.reply(ctx, chatID, "Привет! Давайте заполним анкету. Напишите вашу фамилию:")
}

func (h *Handler) startDateDialogue(ctx context.Context, chatID int64, kind DateKind, prompt string) error {
	if err := h.requireRegistered(ctx, chatID); err != nil {
		if derrors.Is(err, derrors.CodeNotFound) {
			return h.reply(ctx, chatID, "Сначала зарегистрируйтесь: /start")
		}
		return err
	}
	session := &Session{ChatID: chatID, State: StateAwaitingDate, DateKind: kind}
	if err := h.sessions.Put(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return h.reply(ctx, chatID, prompt)
}

func (h *Handler) startDeletion(ctx context.Context, chatID int64) error {
	if err := h.requireRegistered(ctx, chatID); err != nil {
		if derrors.Is(err, derrors.CodeNotFound) {
			return h.reply(ctx, chatID, "Вы не зарегистрированы.")
		}
		return err
	}
	if err := h.sessions.Put(ctx, &Session{ChatID: chatID, State: StateAwaitingConfirmation}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return h.reply(ctx, chatID, fmt.Sprintf(
		"⚠️ Все ваши данные будут удалены без возможности восстановления. Для подтверждения напишите %s:",
		deleteConfirmToken))
}

// handleStep advances the state machine with one plain-text input.
// Validation failures re-prompt and keep the session untouched.
func (h *Handler) handleStep(ctx context.Context, session *Session, text string) error {
	switch session.State {
	case StateAwaitingSurname:
		if !validName(text) {
			return h.rejectInput(ctx, session.ChatID, "Фамилия слишком короткая. Попробуйте еще раз:")
		}
		session.Surname = text
		session.State = StateAwaitingGivenName
		return h.advance(ctx, session, "Теперь введите ваше имя:")

	case StateAwaitingGivenName:
		if !validName(text) {
			return h.rejectInput(ctx, session.ChatID, "Имя слишком короткое. Попробуйте еще раз:")
		}
		session.GivenName = text
		session.State = StateAwaitingPatronymic
		return h.advance(ctx, session, "Введите отчество (или напишите 'нет'):")

	case StateAwaitingPatronymic:
		if !strings.EqualFold(text, skipToken) {
			session.Patronymic = text
		}
		session.State = StateAwaitingRank
		return h.advance(ctx, session, "Введите ваше звание (или напишите 'нет'):")

	case StateAwaitingRank:
		rank := ""
		if !strings.EqualFold(text, skipToken) {
			rank = text
		}
		return h.finishRegistration(ctx, session, rank)

	case StateAwaitingDate:
		return h.handleDateStep(ctx, session, text)

	case StateAwaitingConfirmation:
		return h.handleConfirmation(ctx, session, text)

	default:
		return h.clearAndReply(ctx, session.ChatID, "Не понимаю. Отправьте /help для списка команд.")
	}
}

func (h *Handler) finishRegistration(ctx context.Context, session *Session, rank string) error {
	person := &models.Person{
		ID:         session.ChatID,
		Surname:    session.Surname,
		Name:       session.GivenName,
		Patronymic: session.Patronymic,
		Rank:       rank,
	}
	if err := h.roster.RegisterPerson(ctx, person); err != nil {
		if derrors.Is(err, derrors.CodeConflict) {
			return h.clearAndReply(ctx, session.ChatID, "Вы уже зарегистрированы в системе.")
		}
		return err
	}
	return h.clearAndReply(ctx, session.ChatID,
		"✅ Спасибо! Ваши данные сохранены. Отправьте /help для списка команд.")
}

func (h *Handler) handleDateStep(ctx context.Context, session *Session, text string) error {
	// The follow-up review is optional; everything else wants a real date.
	if session.DateKind == DateUMO && strings.EqualFold(text, skipToken) {
		return h.saveMedical(ctx, session, nil)
	}

	date, err := parseDate(text)
	if err != nil {
		return h.rejectInput(ctx, session.ChatID,
			"Неверный формат даты. Используйте ГГГГ-ММ-ДД или ДД.ММ.ГГГГ:")
	}

	switch session.DateKind {
	case DateVLK:
		session.VLKDate = date.Format(isoDate)
		session.DateKind = DateUMO
		return h.advance(ctx, session, "Введите дату УМО (или напишите 'нет'):")

	case DateUMO:
		return h.saveMedical(ctx, session, &date)

	case DateExercise4:
		return h.saveExercise(ctx, session, models.Exercise4, date)

	case DateExercise7:
		return h.saveExercise(ctx, session, models.Exercise7, date)

	case DateVacationStart:
		session.VacationStart = date.Format(isoDate)
		session.DateKind = DateVacationEnd
		return h.advance(ctx, session, "Введите дату окончания отпуска:")

	case DateVacationEnd:
		return h.saveVacation(ctx, session, date)

	default:
		return h.clearAndReply(ctx, session.ChatID, "Не понимаю. Отправьте /help для списка команд.")
	}
}

func (h *Handler) saveMedical(ctx context.Context, session *Session, umoDate *time.Time) error {
	vlkDate, err := parseDate(session.VLKDate)
	if err != nil {
		// The session carried a date we wrote ourselves; treat as corrupt.
		return h.clearAndReply(ctx, session.ChatID, "Что-то пошло не так, начните заново: /medical")
	}
	if err := h.roster.SetMedical(ctx, session.ChatID, vlkDate, umoDate); err != nil {
		if derrors.Is(err, derrors.CodeValidation) {
			return h.rejectInput(ctx, session.ChatID,
				"Дата УМО не может быть раньше даты ВЛК. Введите дату УМО еще раз (или 'нет'):")
		}
		return err
	}
	return h.clearAndReply(ctx, session.ChatID, "✅ Данные ВЛК/УМО сохранены.")
}

func (h *Handler) saveExercise(ctx context.Context, session *Session, exercise int, date time.Time) error {
	if err := h.roster.SetExercise(ctx, session.ChatID, exercise, date); err != nil {
		return err
	}
	return h.clearAndReply(ctx, session.ChatID,
		fmt.Sprintf("✅ Дата проверки по упр.%d сохранена.", exercise))
}

func (h *Handler) saveVacation(ctx context.Context, session *Session, end time.Time) error {
	start, err := parseDate(session.VacationStart)
	if err != nil {
		return h.clearAndReply(ctx, session.ChatID, "Что-то пошло не так, начните заново: /vacation")
	}
	if err := h.roster.SetVacation(ctx, session.ChatID, start, end); err != nil {
		if derrors.Is(err, derrors.CodeValidation) {
			return h.rejectInput(ctx, session.ChatID,
				"Дата окончания не может быть раньше даты начала. Введите дату окончания еще раз:")
		}
		return err
	}
	profile, err := h.roster.Profile(ctx, session.ChatID)
	if err != nil {
		return err
	}
	return h.clearAndReply(ctx, session.ChatID,
		fmt.Sprintf("✅ Отпуск сохранен: %d дн.", profile.Vacation.Days))
}

func (h *Handler) handleConfirmation(ctx context.Context, session *Session, text string) error {
	if text != deleteConfirmToken {
		return h.clearAndReply(ctx, session.ChatID, "Удаление отменено.")
	}
	if err := h.roster.DeletePerson(ctx, session.ChatID); err != nil {
		return err
	}
	return h.clearAndReply(ctx, session.ChatID, "Все ваши данные удалены.")
}

func (h *Handler) requireRegistered(ctx context.Context, chatID int64) error {
	_, err := h.roster.Profile(ctx, chatID)
	return err
}

// advance persists the mutated session and sends the next prompt.
func (h *Handler) advance(ctx context.Context, session *Session, prompt string) error {
	if err := h.sessions.Put(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return h.reply(ctx, session.ChatID, prompt)
}

// rejectInput re-prompts without touching the session: the dialogue stays
// on the same step with everything collected so far intact.
func (h *Handler) rejectInput(ctx context.Context, chatID int64, prompt string) error {
	if h.metrics != nil {
		h.metrics.IntakeValidation.Inc()
	}
	return h.reply(ctx, chatID, prompt)
}

func (h *Handler) clearAndReply(ctx context.Context, chatID int64, text string) error {
	if err := h.sessions.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return h.reply(ctx, chatID, text)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	if err := h.replies.Send(ctx, chatID, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func validName(text string) bool {
	return len([]rune(text)) >= 2
}

const helpText = `Доступные команды:
/start — регистрация
/medical — внести даты ВЛК и УМО
/check4 — внести дату проверки по упр.4 КБП
/check7 — внести дату проверки по упр.7 КБП
/vacation — внести отпуск
/profile — мои данные
/status — сроки и напоминания
/delete — удалить все мои данные
/cancel — отменить текущее действие`
