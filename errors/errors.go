package errors

import "fmt"

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrInvalidPayload      = fmt.Errorf("invalid event payload")
	ErrEmptyConnectionID   = fmt.Errorf("connection id is empty")
	ErrAlreadyRegistered   = fmt.Errorf("connection already registered")
	ErrOrchestratorStopped = fmt.Errorf("orchestrator stopped")
	ErrBackpressure        = fmt.Errorf("connection send queue full")
	ErrUnknownEvent        = fmt.Errorf("unknown event")
	ErrInvalidFrame        = fmt.Errorf("invalid frame")
	ErrConnectionClosed    = fmt.Errorf("connection closed")
)
