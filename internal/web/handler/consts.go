package handler

const (
	// StatusSuccess marks a successful JSON response.
	StatusSuccess = "success"

	// StatusError marks a failed JSON response.
	StatusError = "error"

	// RouterRootPath is the root path of a route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
