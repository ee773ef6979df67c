package apperrors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrConfigNotFound         = errors.New("configuration file not found")
	ErrConfigMalformed        = errors.New("configuration file is malformed")
	ErrNotConnected           = errors.New("not connected")
	ErrUnsupportedDatasource  = errors.New("unsupported datasource type")
	ErrUnknownTable           = errors.New("table has no query templates")
	ErrMissingPlaceholder     = errors.New("query template placeholder has no value")
	ErrUnsafeQuery            = errors.New("query is not a single read-only statement")
	ErrInvalidInput           = errors.New("invalid input")
	ErrCredentialsKeyMismatch = errors.New("credentials were encrypted with a different key")
)
