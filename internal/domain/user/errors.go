package user

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrPayrollAccessRequired = errors.New("payroll access required")
)
