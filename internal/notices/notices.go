// Package notices carries user-visible messages and domain events from the
// sync and query layers to whoever is listening (HTTP event stream, CLI).
package notices

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOfflineWithData     Kind = "offline_with_data"
	KindOfflineNoData       Kind = "offline_no_data"
	KindSyncSuccess         Kind = "sync_success"
	KindSyncError           Kind = "sync_error"
	KindFavoriteAdded       Kind = "favorite_added"
	KindFavoriteRemoved     Kind = "favorite_removed"
	KindSearchNoResults     Kind = "search_no_results"
	KindUserCategoryCreated Kind = "user_category_created"
	KindContentUpdated      Kind = "content_updated"
	KindPayPalUpdated       Kind = "paypal_updated"
)

var defaultMessages = map[Kind]string{
	KindOfflineWithData:     "Keine Internetverbindung. Die gespeicherten Inhalte werden angezeigt.",
	KindOfflineNoData:       "Keine Internetverbindung. Bitte verbinde dich mit dem Internet, um die Inhalte zu laden.",
	KindSyncSuccess:         "Die Inhalte wurden erfolgreich aktualisiert.",
	KindSyncError:           "Beim Aktualisieren der Inhalte ist ein Fehler aufgetreten.",
	KindFavoriteAdded:       "Zu den Favoriten hinzugefügt.",
	KindFavoriteRemoved:     "Aus den Favoriten entfernt.",
	KindSearchNoResults:     "Keine Ergebnisse gefunden.",
	KindUserCategoryCreated: "Kategorie wurde erstellt.",
	KindContentUpdated:      "Neue Inhalte sind verfügbar.",
	KindPayPalUpdated:       "Der Spendenlink wurde aktualisiert.",
}

// Message returns the default German text for kind.
func Message(kind Kind) string {
	return defaultMessages[kind]
}

// Blocking reports whether the notice leaves the app without usable content.
func (k Kind) Blocking() bool {
	return k == KindOfflineNoData
}

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) {
	f(kind, message)
}

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Kind, string) {})

type EventType string

const (
	EventNotice         EventType = "notice"
	EventVersionChanged EventType = "version_changed"
	EventPayPalChanged  EventType = "paypal_changed"
	EventSyncFinished   EventType = "sync_finished"
)

// Event is one item of the stream fanned out by Hub.
type Event struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	Kind     Kind           `json:"kind,omitempty"`
	Message  string         `json:"message,omitempty"`
	Blocking bool           `json:"blocking,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	At       time.Time      `json:"at"`
}

// NewEvent stamps a domain event with an id and time.
func NewEvent(eventType EventType, data map[string]any) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
		At:   time.Now(),
	}
}

// Publisher receives domain events.
type Publisher interface {
	Publish(event Event)
}
