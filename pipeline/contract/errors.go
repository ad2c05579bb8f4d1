package contract

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrConfigIncomplete  = errors.New("collaborator configuration incomplete")
	ErrDuplicateCase     = errors.New("case already submitted")
	ErrCaseNotFound      = errors.New("case not found")
	ErrAgentInvoke       = errors.New("agent invoke failed")
	ErrSynthesisFailed   = errors.New("synthesis job failed")
	ErrSynthesisTimedOut = errors.New("synthesis polling timed out")
)
