package servicedef

// Names used on the wire by the session protocol endpoint.
const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderRequestID = "X-Request-ID"

	FieldToken  = "token"
	FieldAction = "action"

	PropResult  = "result"
	PropMessage = "message"
)

// Action is the value of the "action" form field.
type Action string

const (
	ActionLogin  Action = "LOGIN"
	ActionAction Action = "ACTION"
	ActionLogout Action = "LOGOUT"
)

// IsKnown returns true for the three actions the protocol defines. Matching is case-sensitive.
func (a Action) IsKnown() bool {
	switch a {
	case ActionLogin, ActionAction, ActionLogout:
		return true
	}
	return false
}

// Result is the value of the "result" property in every protocol response.
type Result string

const (
	ResultOK    Result = "OK"
	ResultError Result = "ERROR"
)

// TokenPattern is the format that every token must have. It is spelled out here, and not only
// in the token package, because it appears verbatim in TokenPatternMessage.
const TokenPattern = `^[0-9A-Z]{32}$`

// TokenPatternMessage is the exact message returned when a token does not match TokenPattern.
const TokenPatternMessage = `token: должно соответствовать "` + TokenPattern + `"`

// Messages for the other ERROR outcomes. Only TokenPatternMessage is part of the contract; the
// harness never asserts on these.
const (
	MessageInvalidAPIKey    = "invalid or missing API key"
	MessageMissingToken     = "token: не должно быть пустым"
	MessageMissingAction    = "action: не должно быть пустым"
	MessageUnknownAction    = "action: unknown action"
	MessageSessionExists    = "session already exists"
	MessageNoSession        = "no active session"
	MessageAuthFailed       = "authentication failed"
	MessageActionFailed     = "action failed"
	MessageInternalError    = "internal error"
	MessageNotFound         = "not found"
	MessageMethodNotAllowed = "method not allowed"
)

// Default paths. The protocol endpoint path can be changed with EnvBasePath; the upstream paths
// are fixed.
const (
	DefaultEndpointPath = "/endpoint"
	UpstreamAuthPath    = "/auth"
	UpstreamActionPath  = "/doAction"
)
