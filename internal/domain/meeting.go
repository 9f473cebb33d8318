package domain

// MeetingID identifies a live two-party meeting room. Clients pass it
// as the `eid` of the join event; it matches the event id of the
// scheduled meeting but is treated as opaque here.
type MeetingID string
