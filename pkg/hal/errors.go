package hal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies register transport failures.
type ErrorKind int

const (
	KindInvalidAddress ErrorKind = iota + 1
	KindConfiguration
	KindBusFailure
)

func (obj ErrorKind) String() string {
	switch obj {
	case KindInvalidAddress:
		return "invalid address"
	case KindConfiguration:
		return "configuration error"
	case KindBusFailure:
		return "bus failure"
	}
	return fmt.Sprintf("kind(%d)", int(obj))
}

// Phase tells which step of a framed read failed.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSelect
	PhaseFetch
)

func (obj Phase) String() string {
	switch obj {
	case PhaseSelect:
		return "register select"
	case PhaseFetch:
		return "data fetch"
	}
	return ""
}

// Sentinels for errors.Is, one per kind.
var (
	ErrInvalidAddress = errors.New("invalid register address")
	ErrConfiguration  = errors.New("invalid transport configuration")
	ErrBusFailure     = errors.New("bus transaction failed")
)

// TransportError is returned by every register operation and bring-up step.
type TransportError struct {
	Kind  ErrorKind
	Phase Phase      // set for framed reads only
	Op    string     // "read", "write", "bring-up"
	Addr  RegAddress // register the operation targeted
	Err   error      // lower level status
}

func (obj *TransportError) Error() string {
	var sb strings.Builder
	sb.WriteString(obj.Kind.String())
	if obj.Op != "" {
		fmt.Fprintf(&sb, ": %s", obj.Op)
		if obj.Kind != KindConfiguration {
			fmt.Fprintf(&sb, " register %s", obj.Addr)
		}
	}
	if obj.Phase != PhaseNone {
		fmt.Fprintf(&sb, " (%s failed)", obj.Phase)
	}
	if obj.Err != nil {
		fmt.Fprintf(&sb, ": %s", obj.Err)
	}
	return sb.String()
}

func (obj *TransportError) Unwrap() error {
	return obj.Err
}

// Is matches the sentinel of the error kind.
func (obj *TransportError) Is(target error) bool {
	switch target {
	case ErrInvalidAddress:
		return obj.Kind == KindInvalidAddress
	case ErrConfiguration:
		return obj.Kind == KindConfiguration
	case ErrBusFailure:
		return obj.Kind == KindBusFailure
	}
	return false
}

// BusFailure wraps a lower level transaction error.
func BusFailure(op string, addr RegAddress, phase Phase, err error) *TransportError {
	return &TransportError{Kind: KindBusFailure, Op: op, Addr: addr, Phase: phase, Err: err}
}

// ConfigurationError reports a bring-up precondition that does not hold.
func ConfigurationError(format string, args ...any) *TransportError {
	return &TransportError{Kind: KindConfiguration, Op: "bring-up", Err: fmt.Errorf(format, args...)}
}

// IsSelectFailure reports whether err is a framed read that failed before the fetch phase.
func IsSelectFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == KindBusFailure && te.Phase == PhaseSelect
}
