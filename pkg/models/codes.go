package models

// Code is a wire-level result code. Atom results and the response envelope
// share one taxonomy: "0000" is success, "0001"/"0002" are benign no-ops that
// clients treat as already applied, E4xxx are client errors and E5xxx are
// server errors.
type Code string

const (
	CodeOK        Code = "0000"
	CodeDuplicate Code = "0001" // create already applied, no second row
	CodeStale     Code = "0002" // operateStamp not newer than the stored guard

	CodeBadRequest Code = "E4000"
	CodeForbidden  Code = "E4003"
	CodeNotFound   Code = "E4004"
	CodeBadDecrypt Code = "E4009"

	CodeServerError Code = "E5001"
)

// Success reports whether the code means the operation took effect.
func (c Code) Success() bool { return c == CodeOK }

// NoOp reports whether the code is a benign no-op rather than an error.
func (c Code) NoOp() bool { return c == CodeDuplicate || c == CodeStale }
