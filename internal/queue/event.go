// Package queue defines message payloads exchanged over the message broker
// and the consumer that reacts to them.
package queue

import "time"

// ChurchSwitchedQueue is the default durable queue for ChurchSwitchedEvent.
const ChurchSwitchedQueue = "church.switched"

// ChurchSwitchedEvent is published after a user's active church changed.
// Every instance sharing the response cache drops the user's entries when it
// sees one, so no instance keeps serving the previous church.
type ChurchSwitchedEvent struct {
    UserID           uint64    `json:"user_id"`
    ChurchID         uint64    `json:"church_id"`
    PreviousChurchID uint64    `json:"previous_church_id"` // 0 on the first selection
    SwitchedAt       time.Time `json:"switched_at"`
}
