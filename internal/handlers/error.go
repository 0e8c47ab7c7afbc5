package handlers

// ErrorResponse is the standard API error body (message only). It matches
// what echo renders for *echo.HTTPError.
type ErrorResponse struct {
	Message string `json:"message"`
}
