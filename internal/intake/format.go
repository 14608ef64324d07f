package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
	rosterservice "aircrew/internal/roster/service"
	derrors "aircrew/pkg/domain-errors"
	"aircrew/pkg/requestcontext"
)

func (h *Handler) sendProfile(ctx context.Context, chatID int64) error {
	profile, err := h.roster.Profile(ctx, chatID)
	if err != nil {
		if derrors.Is(err, derrors.CodeNotFound) {
			return h.reply(ctx, chatID, "Вы не зарегистрированы. Отправьте /start.")
		}
		return err
	}
	return h.reply(ctx, chatID, renderProfile(profile))
}

func (h *Handler) sendStatus(ctx context.Context, chatID int64) error {
	profile, err := h.roster.Profile(ctx, chatID)
	if err != nil {
		if derrors.Is(err, derrors.CodeNotFound) {
			return h.reply(ctx, chatID, "Вы не зарегистрированы. Отправьте /start.")
		}
		return err
	}
	now := policy.DateOnly(requestcontext.Now(ctx))
	return h.reply(ctx, chatID, renderStatus(profile, now))
}

func renderProfile(p *rosterservice.Profile) string {
	var b strings.Builder
	b.WriteString("📋 Ваши данные:\n")
	fmt.Fprintf(&b, "ФИО: %s", p.Person.FullName())
	if p.Person.Patronymic != "" {
		fmt.Fprintf(&b, " %s", p.Person.Patronymic)
	}
	b.WriteString("\n")
	if p.Person.Rank != "" {
		fmt.Fprintf(&b, "Звание: %s\n", p.Person.Rank)
	}

	if p.Medical != nil {
		fmt.Fprintf(&b, "ВЛК: %s\n", p.Medical.VLKDate.Format(displayDate))
		if p.Medical.UMODate != nil {
			fmt.Fprintf(&b, "УМО: %s\n", p.Medical.UMODate.Format(displayDate))
		} else {
			b.WriteString("УМО: не пройдено\n")
		}
	} else {
		b.WriteString("ВЛК: нет данных\n")
	}

	if p.Proficiency != nil && p.Proficiency.Exercise4Date != nil {
		fmt.Fprintf(&b, "Упр.4 КБП: %s\n", p.Proficiency.Exercise4Date.Format(displayDate))
	} else {
		b.WriteString("Упр.4 КБП: нет данных\n")
	}
	if p.Proficiency != nil && p.Proficiency.Exercise7Date != nil {
		fmt.Fprintf(&b, "Упр.7 КБП: %s\n", p.Proficiency.Exercise7Date.Format(displayDate))
	} else {
		b.WriteString("Упр.7 КБП: нет данных\n")
	}

	if p.Vacation != nil {
		fmt.Fprintf(&b, "Отпуск: %s — %s (%d дн.)\n",
			p.Vacation.StartDate.Format(displayDate),
			p.Vacation.EndDate.Format(displayDate),
			p.Vacation.Days)
	} else {
		b.WriteString("Отпуск: нет данных\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderStatus runs the deadline evaluators over the caller's own records.
// It mirrors what the daily sweep would tell them, plus the quiet lines the
// sweep never sends.
func renderStatus(p *rosterservice.Profile, now time.Time) string {
	var b strings.Builder
	b.WriteString("📊 Статус допусков:\n")

	if p.Medical != nil {
		s := policy.EvaluateClearance(p.Medical.VLKDate, p.Medical.HasFollowup(), now)
		switch {
		case s.Expired:
			fmt.Fprintf(&b, "⛔ ВЛК просрочена (%d дн. назад)\n", s.DaysPassed-policy.VLKValidDays)
		case s.FollowupRequired:
			fmt.Fprintf(&b, "⚠️ Требуется УМО: после ВЛК прошло %d дн.\n", s.DaysPassed)
		case s.WarnTier != 0:
			fmt.Fprintf(&b, "%s ВЛК истекает через %d дн.\n", tierMark(s.WarnTier), s.DaysRemaining)
		default:
			fmt.Fprintf(&b, "✅ ВЛК действительна еще %d дн.\n", s.DaysRemaining)
		}
	} else {
		b.WriteString("ВЛК: нет данных\n")
	}

	writeExercise(&b, "Упр.4 КБП", p.Proficiency, models.Exercise4, now)
	writeExercise(&b, "Упр.7 КБП", p.Proficiency, models.Exercise7, now)

	if p.Vacation != nil {
		s := policy.EvaluateVacation(p.Vacation.EndDate, now)
		switch {
		case s.Expired:
			fmt.Fprintf(&b, "⛔ Год после отпуска истек (%d дн. назад)\n", s.DaysPassed-policy.VacationCycleDays)
		case s.WarnTier != 0:
			fmt.Fprintf(&b, "%s До конца года после отпуска %d дн.\n", tierMark(s.WarnTier), s.DaysUntilNext)
		default:
			fmt.Fprintf(&b, "✅ До следующего отпуска %d дн.\n", s.DaysUntilNext)
		}
	} else {
		b.WriteString("Отпуск: нет данных\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeExercise(b *strings.Builder, label string, rec *models.ProficiencyRecord, exercise int, now time.Time) {
	var date *time.Time
	if rec != nil {
		switch exercise {
		case models.Exercise4:
			date = rec.Exercise4Date
		case models.Exercise7:
			date = rec.Exercise7Date
		}
	}
	if date == nil {
		fmt.Fprintf(b, "%s: нет данных\n", label)
		return
	}
	s := policy.EvaluateExercise(*date, models.ExerciseValidMonths(exercise), now)
	switch {
	case s.Expired:
		fmt.Fprintf(b, "⛔ %s: проверка просрочена (до %s)\n", label, s.ValidUntil.Format(displayDate))
	case s.WarnTier != 0:
		fmt.Fprintf(b, "%s %s: истекает через %d дн.\n", tierMark(s.WarnTier), label, s.DaysRemaining)
	default:
		fmt.Fprintf(b, "✅ %s: действительна до %s\n", label, s.ValidUntil.Format(displayDate))
	}
}

func tierMark(tier int) string {
	if tier == policy.Tier7 {
		return "🚨"
	}
	return "⏰"
}
