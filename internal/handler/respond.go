package handler

import "github.com/labstack/echo/v4"

// envelope is the uniform response shape for every JSON endpoint:
// { success, message, data?, error? }.  The error field carries
// diagnostic detail and is omitted in production.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respond writes a success envelope.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// respondError writes a failure envelope.  detail is included only when
// prod is false; data stays empty on errors except for validation
// responses which attach the missing-field list via respondErrorData.
func respondError(c echo.Context, status int, message string, detail error, prod bool) error {
	e := envelope{Success: false, Message: message}
	if detail != nil && !prod {
		e.Error = detail.Error()
	}
	return c.JSON(status, e)
}

// respondErrorData is respondError with a payload, used to report every
// missing field of a rejected request in one round trip.
func respondErrorData(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: false, Message: message, Data: data})
}
