package logging

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// Init sets up the text formatter with full timestamps and the log level.
func Init(level string) error {
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	logrus.SetFormatter(customFormatter)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// RequestLogger tags every request with a request ID and logs it once it is served.
func RequestLogger() gin.HandlerFunc {
	base := Component("http")
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		rlog := base.WithField(requestIDKey, id)
		c.Set(requestIDKey, rlog)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		entry := rlog.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case len(c.Errors) > 0:
			entry.Warn(c.Errors.String())
		default:
			entry.Debug("request served")
		}
	}
}

// FromContext returns the request logger set by RequestLogger. If there is
// none, the component logger is returned.
func FromContext(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(requestIDKey); ok {
		if rlog, ok := v.(*logrus.Entry); ok {
			return rlog
		}
	}
	return Component("http")
}
