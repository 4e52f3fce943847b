package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/form"
	"github.com/mbolis/quick-forms/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// RenderValidation answers with the validation errors held by err and
// reports whether it did. A field that does not belong to the form is a 404,
// anything else a 400. Errors of other kinds are left to the caller.
func RenderValidation(w http.ResponseWriter, r *http.Request, code string, err error) bool {
	errs := form.ValidationErrors(err)
	if len(errs) == 0 {
		return false
	}

	status := http.StatusBadRequest
	if len(errs) == 1 && errors.Is(errs[0], form.ErrFieldNotFound) {
		status = http.StatusNotFound
	}

	log.Debugf("%s: %s", code, err)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{
		"errors": errs,
	})
	return true
}
