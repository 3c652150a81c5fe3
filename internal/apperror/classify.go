package apperror

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bhushangy/natours-api/internal/model"
)

// mysqlDuplicateEntry is the server error number MySQL reports when a
// unique index is violated.
const mysqlDuplicateEntry = 1062

// Classify rewrites well-known failure shapes into operational errors with
// tailored messages. It is called from the central error handler so that
// the translation policy lives at the formatting boundary rather than at
// every call site. Failures that are not recognized are returned unchanged.
func Classify(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return Wrap(http.StatusBadRequest, "Invalid input data. "+validationErr.Error(), err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return Wrap(http.StatusBadRequest, "Duplicate field value. Please use another value!", err)
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Wrap(http.StatusUnauthorized, "Your token has expired! Please log in again.", err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return Wrap(http.StatusUnauthorized, "Invalid token. Please log in again!", err)
	case errors.Is(err, sql.ErrNoRows):
		return Wrap(http.StatusNotFound, "No record found with that id", err)
	}

	return err
}
