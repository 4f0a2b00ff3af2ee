package commerce

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrAuthentication = errors.New("commerce authentication failed")
	ErrUnavailable    = errors.New("commerce backend unavailable")
)

const defaultAPIMessage = "API Request Failed"

const codeDuplicateField = "DuplicateField"

// APIError is a non-2xx answer from the commerce API. Message carries the
// remote text unchanged so it can be shown to the operator.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) duplicate() bool {
	return e.Code == codeDuplicateField || e.Status == http.StatusConflict
}

type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: defaultAPIMessage}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}
	if len(body.Errors) > 0 {
		apiErr.Code = body.Errors[0].Code
	}
	return apiErr
}

func IsDuplicate(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.duplicate()
}
