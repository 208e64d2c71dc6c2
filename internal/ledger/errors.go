package ledger

import "errors"

var (
	// ErrUnknownEmployee means a punch code matched no employee.
	ErrUnknownEmployee = errors.New("employee code not recognized")

	// ErrInactiveEmployee means the blocking policy rejected a punch for
	// an employee whose status is VACATION or ABSENT.
	ErrInactiveEmployee = errors.New("employee is not active")

	// ErrDuplicateCode means another employee already uses the code.
	ErrDuplicateCode = errors.New("employee code already in use")

	// ErrValidation means a user-supplied form value was malformed.
	ErrValidation = errors.New("invalid input")

	// ErrPersist means the mutation applied in memory but the gateway
	// write failed. Callers should surface it as a warning, not roll back.
	ErrPersist = errors.New("failed to persist")
)
