package service

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error code returned in errors[].extensions.code.
type Code string

const (
	CodeInvalidEmailAddress Code = "INVALID_EMAIL_ADDRESS"
	CodeInvalidPassword     Code = "INVALID_PASSWORD"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeAlreadyUsedEmail    Code = "ALREADY_USED_EMAIL"
	CodeInvalidName         Code = "INVALID_NAME"
	CodeInvalidResources    Code = "INVALID_RESOURCES"
	CodeInvalidID           Code = "INVALID_ID"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeNameNotUnique       Code = "NAME_NOT_UNIQUE"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeGroupNotFound       Code = "GROUP_NOT_FOUND"
	CodePersonNotFound      Code = "PERSON_NOT_FOUND"
	CodeExpenseNotFound     Code = "EXPENSE_NOT_FOUND"
	CodeInternal            Code = "INTERNAL_SERVER_ERROR"
)

// internalMessage is the only text an internal failure shows to clients.
const internalMessage = "Something unexpected happened!"

// Error is a client-facing error. Message and Code cross the API boundary;
// the cause is only ever logged.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Extensions is read by the GraphQL executor and copied into the response.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

var (
	ErrInvalidEmailAddress = &Error{Code: CodeInvalidEmailAddress, Message: "The email address is invalid!"}
	ErrInvalidPassword     = &Error{Code: CodeInvalidPassword, Message: "The password is invalid!"}
	ErrInvalidCredentials  = &Error{Code: CodeInvalidCredentials, Message: "The credentials are invalid!"}
	ErrAlreadyUsedEmail    = &Error{Code: CodeAlreadyUsedEmail, Message: "The email address is already used!"}
	ErrInvalidName         = &Error{Code: CodeInvalidName, Message: "The name is invalid!"}
	ErrInvalidResources    = &Error{Code: CodeInvalidResources, Message: "The resources are invalid!"}
	ErrInvalidID           = &Error{Code: CodeInvalidID, Message: "The id is invalid!"}
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount, Message: "The amount is invalid!"}
	ErrUserNotFound        = &Error{Code: CodeUserNotFound, Message: "The user couldn't be found!"}
	ErrGroupNotFound       = &Error{Code: CodeGroupNotFound, Message: "The group couldn't be found!"}
	ErrPersonNotFound      = &Error{Code: CodePersonNotFound, Message: "The person couldn't be found!"}
	ErrExpenseNotFound     = &Error{Code: CodeExpenseNotFound, Message: "The expense couldn't be found!"}
	ErrInternal            = &Error{Code: CodeInternal, Message: internalMessage}
)

// NonUniqueName reports a name already taken within its sibling set.
func NonUniqueName(name string) *Error {
	return &Error{
		Code:    CodeNameNotUnique,
		Message: fmt.Sprintf("The name %q is already used!", name),
	}
}

// Internal hides err behind the generic internal error.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: internalMessage, cause: err}
}

// AsError converts any error into a client-facing *Error. Errors that are
// not already client-facing become internal errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return Internal(err)
}
