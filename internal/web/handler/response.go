package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform JSON response wrapper of the API.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Success writes a success envelope with the given payload.
func Success(c *fiber.Ctx, data any) error {
	return c.JSON(Envelope{Status: StatusSuccess, Data: data})
}

// Created writes a success envelope with status 201.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Status: StatusSuccess, Data: data})
}

// CreatedMessageData writes a success envelope with a message and payload
// and status 201.
func CreatedMessageData(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// SuccessMessage writes a success envelope carrying only a message.
func SuccessMessage(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Status: StatusSuccess, Message: message})
}

// SuccessMessageData writes a success envelope with a message and payload.
func SuccessMessageData(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// Error writes an error envelope with the given HTTP status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Status: StatusError, Message: message})
}

// ValidationError writes a 422 envelope carrying per-field or per-entry errors.
func ValidationError(c *fiber.Ctx, message string, errs any) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
		Status:  StatusError,
		Message: message,
		Errors:  errs,
	})
}
