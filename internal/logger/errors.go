package logger

import (
	"errors"
)

var (
	// ErrAppNameIsEmpty rejects a logger config without an application name.
	ErrAppNameIsEmpty = errors.New("logger config is missing AppName")

	// ErrServiceNameIsEmpty rejects a logger config without a service name.
	// The service name labels the prometheus log counter.
	ErrServiceNameIsEmpty = errors.New("logger config is missing ServiceName")
)
