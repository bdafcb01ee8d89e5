package catalog

import "errors"

var (
	ErrServiceNotFound      = errors.New("service not found")
	ErrServiceAlreadyExists = errors.New("service with this name already exists")
	ErrServiceInactive      = errors.New("service is not currently offered")
	ErrInvalidDuration      = errors.New("service duration must be greater than zero")
	ErrInvalidCategory      = errors.New("invalid service category")
)
