package adlist

import "fmt"

// RequestFailedError is returned when an HTTP source answers with a non-2xx
// status.
type RequestFailedError struct {
	Code int
	Body string
}

// Error implements the error interface for *RequestFailedError.
func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// InvalidResponseError is returned when HTTP response metadata is malformed.
type InvalidResponseError struct {
	Detail string
}

// Error implements the error interface for *InvalidResponseError.
func (e *InvalidResponseError) Error() string {
	return "invalid response: " + e.Detail
}

// UnsupportedSchemeError is returned for URLs that are neither http, https
// nor file.
type UnsupportedSchemeError struct {
	Scheme string
}

// Error implements the error interface for *UnsupportedSchemeError.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported url scheme %q", e.Scheme)
}

// InvalidFilePathError is returned when a file URL does not denote an
// absolute local path.
type InvalidFilePathError struct {
	URL string
}

// Error implements the error interface for *InvalidFilePathError.
func (e *InvalidFilePathError) Error() string {
	return fmt.Sprintf("url %q is not a valid file path", e.URL)
}
