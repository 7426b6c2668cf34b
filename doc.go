// Package main provides the entry point for the GoUserHub backend.
// It runs a JSON API server built on the Fiber framework covering user
// registration and login, bearer token sessions, two-factor setup, profile
// management, admin user administration and a typed application-settings
// store persisted with gorm.
package main
