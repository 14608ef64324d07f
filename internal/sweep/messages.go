package sweep

import (
	"fmt"

	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
)

// Notification categories (also used as metric labels).
const (
	CategoryVLK       = "vlk"
	CategoryUMO       = "umo"
	CategoryExercise4 = "exercise4"
	CategoryExercise7 = "exercise7"
	CategoryVacation  = "vacation"
)

// Finding is one flagged condition for one person: the tailored text for
// the person and the short tail of the duty officer's mirror line.
type Finding struct {
	Category   string
	Marker     string
	PersonText string
	AdminText  string
}

// displayDate renders a date the way users read it. Storage and comparison
// always stay ISO.
const displayDate = "02.01.2006"

// tierMarker picks the urgency emoji: the 7-day window gets the alarm, the
// wider windows the clock.
func tierMarker(tier int) string {
	if tier == policy.Tier7 {
		return "🚨"
	}
	return "⏰"
}

func clearanceFindings(rec *models.MedicalRecord, status policy.ClearanceStatus) []Finding {
	switch {
	case status.Expired:
		return []Finding{{
			Category: CategoryVLK,
			Marker:   "⛔",
			PersonText: fmt.Sprintf(
				"⛔ Ваша ВЛК истекла %d дн. назад. Необходимо срочно пройти освидетельствование!",
				status.DaysPassed-policy.VLKValidDays),
			AdminText: fmt.Sprintf("ВЛК истекла (%d дн. назад)", status.DaysPassed-policy.VLKValidDays),
		}}
	case status.FollowupRequired:
		return []Finding{{
			Category: CategoryUMO,
			Marker:   "⚠️",
			PersonText: fmt.Sprintf(
				"⚠️ Требуется пройти УМО: с ВЛК от %s прошло %d дн.",
				rec.VLKDate.Format(displayDate), status.DaysPassed),
			AdminText: fmt.Sprintf("требуется УМО (ВЛК от %s)", rec.VLKDate.Format(displayDate)),
		}}
	case status.WarnTier != 0:
		marker := tierMarker(status.WarnTier)
		return []Finding{{
			Category: CategoryVLK,
			Marker:   marker,
			PersonText: fmt.Sprintf(
				"%s ВЛК истекает через %d дн. Запланируйте освидетельствование.",
				marker, status.DaysRemaining),
			AdminText: fmt.Sprintf("ВЛК через %d дн.", status.DaysRemaining),
		}}
	default:
		return nil
	}
}

func exerciseFindings(exercise int, status policy.ExerciseStatus) []Finding {
	category := CategoryExercise4
	if exercise == models.Exercise7 {
		category = CategoryExercise7
	}
	switch {
	case status.Expired:
		return []Finding{{
			Category: category,
			Marker:   "⛔",
			PersonText: fmt.Sprintf(
				"⛔ Проверка по упр.%d КБП истекла %d дн. назад. Требуется повторная проверка!",
				exercise, -status.DaysRemaining),
			AdminText: fmt.Sprintf("упр.%d истекло (%d дн. назад)", exercise, -status.DaysRemaining),
		}}
	case status.WarnTier != 0:
		marker := tierMarker(status.WarnTier)
		return []Finding{{
			Category: category,
			Marker:   marker,
			PersonText: fmt.Sprintf(
				"%s Проверка по упр.%d КБП действительна до %s (%d дн.).",
				marker, exercise, status.ValidUntil.Format(displayDate), status.DaysRemaining),
			AdminText: fmt.Sprintf("упр.%d через %d дн.", exercise, status.DaysRemaining),
		}}
	default:
		return nil
	}
}

func vacationFindings(status policy.VacationStatus) []Finding {
	switch {
	case status.Expired:
		return []Finding{{
			Category: CategoryVacation,
			Marker:   "⚠️",
			PersonText: fmt.Sprintf(
				"⚠️ Год с окончания отпуска истёк %d дн. назад. Спланируйте очередной отпуск.",
				status.DaysPassed-policy.VacationCycleDays),
			AdminText: fmt.Sprintf("отпуск истёк (%d дн. назад)", status.DaysPassed-policy.VacationCycleDays),
		}}
	case status.WarnTier != 0:
		marker := tierMarker(status.WarnTier)
		return []Finding{{
			Category: CategoryVacation,
			Marker:   marker,
			PersonText: fmt.Sprintf(
				"%s До конца годового цикла отпуска осталось %d дн.",
				marker, status.DaysUntilNext),
			AdminText: fmt.Sprintf("отпуск через %d дн.", status.DaysUntilNext),
		}}
	default:
		return nil
	}
}
