// Package intake drives the conversational dialogues: registration,
// record entry, profile and status queries, and deletion.
//
// Dialogue state is an explicit finite-state machine keyed by chat id.
// Sessions exist only for the duration of one dialogue and are discarded on
// completion or cancellation.
package intake

import "context"

// State is a dialogue step awaiting user input.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingSurname      State = "awaiting_surname"
	StateAwaitingGivenName    State = "awaiting_given_name"
	StateAwaitingPatronymic   State = "awaiting_patronymic"
	StateAwaitingRank         State = "awaiting_rank"
	StateAwaitingDate         State = "awaiting_date"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// DateKind tells which date an AwaitingDate step collects.
type DateKind string

const (
	DateVLK           DateKind = "vlk"
	DateUMO           DateKind = "umo"
	DateExercise4     DateKind = "exercise4"
	DateExercise7     DateKind = "exercise7"
	DateVacationStart DateKind = "vacation_start"
	DateVacationEnd   DateKind = "vacation_end"
)

// Session is one in-flight dialogue. Collected fields accumulate across
// steps; date fields hold ISO strings until the final write.
type Session struct {
	ChatID   int64    `json:"chat_id"`
	State    State    `json:"state"`
	DateKind DateKind `json:"date_kind,omitempty"`

	Surname    string `json:"surname,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	Patronymic string `json:"patronymic,omitempty"`

	// VLKDate carries the clearance date between the VLK and UMO steps.
	VLKDate string `json:"vlk_date,omitempty"`
	// VacationStart carries the start date to the end-date step.
	VacationStart string `json:"vacation_start,omitempty"`
}

// SessionStore persists in-flight dialogues. Get returns (nil, nil) when no
// dialogue is active for the chat.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, chatID int64) error
}
