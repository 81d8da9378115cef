package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Logger はリクエストの開始と完了をログに出す
func Logger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			log := log
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				log = log.WithField("req_id", rid)
			}

			log = log.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"remoteaddr": c.RealIP(),
			})

			log.Info("started")
			startTime := time.Now().UTC()

			err := next(c)
			if err != nil {
				//echoのエラーハンドラでレスポンスを書かせる
				c.Error(err)
			}

			log = log.WithFields(logrus.Fields{
				"statuscode": c.Response().Status,
				"bytes":      c.Response().Size,
				"since":      time.Since(startTime).Nanoseconds(),
			})
			if err != nil {
				log.WithError(err).Warn("completed")
			} else {
				log.Info("completed")
			}
			return nil
		}
	}
}
