package domain

const (
	RoleAdmin      = "ADMIN"
	RoleTechnician = "TECHNICIAN"
	RoleOperator   = "OPERATOR"
)

const (
	TicketStatusOpen       = "OPEN"
	TicketStatusInProgress = "IN_PROGRESS"
	TicketStatusClosed     = "CLOSED"
)

const (
	TicketPriorityLow    = "LOW"
	TicketPriorityMedium = "MEDIUM"
	TicketPriorityHigh   = "HIGH"
)

const (
	DeviceStatusActive   = "ACTIVE"
	DeviceStatusInRepair = "IN_REPAIR"
	DeviceStatusRetired  = "RETIRED"
)

const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

const (
	MaintenanceStatusOpen = "OPEN"
	MaintenanceStatusDone = "DONE"
)

// Note length bounds for closing a ticket.
const (
	ActionNoteMinLen = 1
	ActionNoteMaxLen = 250
)
