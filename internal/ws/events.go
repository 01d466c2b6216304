package ws

import (
	"encoding/json"
	"time"
)

// Wire envelope for both directions: {"event": ..., "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound wraps a payload for marshalling.
type Outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client -> server events.
const (
	EvAuthenticate         = "authenticate"
	EvStartAttendance      = "start_attendance"
	EvTransferAttendance   = "transfer_attendance"
	EvFinishAttendance     = "finish_attendance"
	EvCancelAttendance     = "cancel_attendance"
	EvGetActiveAttendances = "get_active_attendances"
)

// Server -> client events.
const (
	EvAuthenticated           = "authenticated"
	EvResumeAttendance        = "resume_attendance"
	EvActiveAttendances       = "active_attendances"
	EvTimersSync              = "timers_sync"
	EvAttendanceStarted       = "attendance_started"
	EvUserStartedAttendance   = "user_started_attendance"
	EvAttendanceBlocked       = "attendance_blocked"
	EvTransferCompleted       = "transfer_completed"
	EvTransferReceived        = "transfer_received"
	EvUserFinishedAttendance  = "user_finished_attendance"
	EvAttendanceCancelled     = "attendance_cancelled"
	EvUserCancelledAttendance = "user_cancelled_attendance"
	EvUserConnected           = "user_connected"
	EvUserDisconnected        = "user_disconnected"
	EvError                   = "error"
)

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type StartPayload struct {
	TicketID uint `json:"ticket_id"`
}

type TransferPayload struct {
	TicketID         uint `json:"ticket_id"`
	ToCollaboratorID uint `json:"to_collaborator_id"`
}

type FinishPayload struct {
	TicketID    uint   `json:"ticket_id"`
	DetractorID uint   `json:"detractor_id"`
	Note        string `json:"note"`
}

type CancelPayload struct {
	TicketID uint `json:"ticket_id"`
}

type BlockedPayload struct {
	Reason string `json:"reason"`
}

type TransferReceivedPayload struct {
	TicketID         uint      `json:"ticket_id"`
	StartTime        time.Time `json:"start_time"`
	PreservedSeconds int64     `json:"preserved_seconds"`
	TransferredBy    string    `json:"transferred_by"`
	AutoOpen         bool      `json:"auto_open"`
}

type UserPresencePayload struct {
	CollaboratorID uint   `json:"collaborator_id"`
	Name           string `json:"name"`
}
