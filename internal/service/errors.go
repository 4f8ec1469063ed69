package service

import "errors"

// GenericFailureMessage is what users see when a catalog operation fails
// for a reason they cannot fix themselves.
const GenericFailureMessage = "Operation failed, please try again"

// ValidationError reports user input the catalog refuses to store
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// UserMessage turns an error from the service into text fit for the user.
// Storage details are shown only in debug mode.
func UserMessage(err error, debug bool) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if debug {
		return err.Error()
	}
	return GenericFailureMessage
}
