// Package handler contains shared building blocks of the HTTP API:
// the response envelope, request validation and the handler interface.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error
}
