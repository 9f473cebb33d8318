package domain

type EventID int64

// Event is a tutoring event as resolved by the external event store.
// Only the fields the chat/meeting core needs are carried here; the
// full record (schedule, category, description) stays with the store.
type Event struct {
	ID      EventID `json:"eventid"`
	TuteeID UserID  `json:"userid_tutee"`
	TutorID UserID  `json:"userid_tutor"`
	Title   string  `json:"title"`
}

// ParticipantRole reports the chat role a user holds on this event,
// or false when the user is neither the tutor nor the tutee.
func (e Event) ParticipantRole(uid UserID) (ChatRole, bool) {
	switch uid {
	case e.TutorID:
		return RoleTutor, true
	case e.TuteeID:
		return RoleTutee, true
	}
	return "", false
}
