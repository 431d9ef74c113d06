package view

import (
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	flashSessionName = "arena-flash"
	flashKeySuccess  = "success"
	flashKeyError    = "error"
)

// Flashes are one-shot notices shown on the next status page load, e.g. the
// outcome of a start or reset from the control form.
type Flashes struct {
	Success []string
	Error   []string
}

// Empty reports whether there is nothing to show.
func (f Flashes) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

func setFlash(c echo.Context, key, message string) error {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return err
	}
	sess.AddFlash(message, key)
	return sess.Save(c.Request(), c.Response())
}

// SetFlashSuccess queues a success notice.
func SetFlashSuccess(c echo.Context, message string) error {
	return setFlash(c, flashKeySuccess, message)
}

// SetFlashError queues an error notice.
func SetFlashError(c echo.Context, message string) error {
	return setFlash(c, flashKeyError, message)
}

// PopFlashes returns and clears the queued notices. A missing session yields
// none.
func PopFlashes(c echo.Context) Flashes {
	var out Flashes
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return out
	}
	out.Success = flashText(sess.Flashes(flashKeySuccess))
	out.Error = flashText(sess.Flashes(flashKeyError))
	if !out.Empty() {
		_ = sess.Save(c.Request(), c.Response())
	}
	return out
}

func flashText(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
