package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// errorCodes maps HTTP statuses onto the small set of user-facing error
// codes of the API.
var errorCodes = map[int]string{
	http.StatusBadRequest:          "invalid-argument",
	http.StatusUnauthorized:        "unauthenticated",
	http.StatusForbidden:           "permission-denied",
	http.StatusNotFound:            "not-found",
	http.StatusPreconditionFailed:  "failed-precondition",
	http.StatusInternalServerError: "internal",
}

// CustomErrorHandler converts every failure into a JSON error envelope
// with a stable code, keeping provider detail when available.
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	errorCode, ok := errorCodes[code]
	if !ok {
		errorCode = "internal"
	}

	if code >= http.StatusInternalServerError {
		logrus.WithField("path", c.Request().URL.Path).Error(err)
	}

	if c.Response().Committed {
		return
	}

	sendErr := c.JSON(code, map[string]interface{}{
		"error": map[string]string{
			"code":    errorCode,
			"message": message,
		},
	})
	if sendErr != nil {
		logrus.Errorf("failed to write error response: %v", sendErr)
	}
}
