package model

import "errors"

// Precondition failures. They mean the caller asked for an operation the
// assignment cannot perform; the assignment is left unchanged.
var (
	ErrDuplicateStudent  = errors.New("student already exists")
	ErrUnknownStudent    = errors.New("unknown student")
	ErrDuplicateQuestion = errors.New("question already exists")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrUnknownComment    = errors.New("unknown comment")
	ErrStudentAttached   = errors.New("student already attached to comment")
	ErrNegativeDeduction = errors.New("deduction must not be negative")
	ErrInvalidDeduction  = errors.New("deduction must be a finite number")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrCorruptAssignment = errors.New("corrupt assignment")
)
