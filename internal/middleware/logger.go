package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-reservation/internal/logging"
)

// CorrelationIDHeader carries the request correlation id in both
// directions.
const CorrelationIDHeader = "X-Correlation-ID"

// RequestLogger attaches a request-scoped logrus entry to the request
// context, tagged with a correlation id taken from the incoming header or
// generated, and logs every request with its outcome.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			correlationID := req.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			c.Response().Header().Set(CorrelationIDHeader, correlationID)

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         req.Method,
				"path":           req.URL.Path,
			})
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), entry)))

			started := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is final.
				c.Error(err)
			}

			done := logging.FromContext(c.Request().Context()).WithFields(logrus.Fields{
				"status":   c.Response().Status,
				"duration": time.Since(started).String(),
			})
			if err != nil {
				done.WithError(err).Error("Request handling error")
			} else {
				done.Info("Handled a request")
			}
			return nil
		}
	}
}
