// Package proxyerror is the single failure type returned by the guest proxy agent.
//
// Callers build an *Error through one constructor per failure category and
// can only render it. The variant is private: code that needs to branch on
// a root cause must inspect that cause before wrapping it.
package proxyerror

import (
	"fmt"
	"net/http"
)

// Error is an immutable, opaque failure.
type Error struct {
	kind errorType
}

func newError(kind errorType) *Error {
	return &Error{kind: kind}
}

// IO wraps a local storage or filesystem failure.
func IO(context string, err error) *Error {
	return newError(ioError{context: context, cause: errText(err)})
}

// Hyper wraps an HTTP client failure.
func Hyper(e HyperErrorType) *Error {
	return newError(hyperError{e})
}

// Hex wraps a failure to decode hex encoded key material. context names the key.
func Hex(context string, err error) *Error {
	return newError(hexError{context: context, cause: errText(err)})
}

// Key wraps a key latch failure.
func Key(e KeyErrorType) *Error {
	return newError(keyError{e})
}

// ParseURL wraps a failure returned while parsing url.
func ParseURL(url string, err error) *Error {
	return newError(parseURLError{url: url, message: errText(err)})
}

// ParseURLMessage reports url as malformed for the given reason.
func ParseURLMessage(url string, message string) *Error {
	return newError(parseURLError{url: url, message: message})
}

// WireServer reports that the op call to the wire server failed.
func WireServer(op WireServerErrorType, message string) *Error {
	return newError(wireServerError{op: op, message: message})
}

func (e *Error) Error() string {
	if e == nil || e.kind == nil {
		return "<nil>"
	}
	return e.kind.render()
}

type errorType interface {
	render() string
}

type ioError struct {
	context string
	cause   string
}

func (e ioError) render() string {
	return fmt.Sprintf("IO error: %s: %s", e.context, e.cause)
}

type hyperError struct {
	HyperErrorType
}

func (e hyperError) render() string {
	return renderHyper(e.HyperErrorType)
}

type hexError struct {
	context string
	cause   string
}

func (e hexError) render() string {
	return fmt.Sprintf("Hex encoded key '%s' is invalid: %s", e.context, e.cause)
}

type keyError struct {
	KeyErrorType
}

func (e keyError) render() string {
	return "Key error: " + renderKey(e.KeyErrorType)
}

type wireServerError struct {
	op      WireServerErrorType
	message string
}

func (e wireServerError) render() string {
	return fmt.Sprintf("%s with the error: %s", e.op, e.message)
}

type parseURLError struct {
	url     string
	message string
}

func (e parseURLError) render() string {
	return fmt.Sprintf("Failed to parse URL %s with error: %s", e.url, e.message)
}

// HyperErrorType is the closed set of HTTP client failures:
// HyperCustom, HyperRequestBuilder, HyperServerError and HyperDeserialize.
type HyperErrorType interface {
	fmt.Stringer
	hyperErrorType()
}

// HyperCustom is a transport failure with a caller supplied context.
type HyperCustom struct {
	Context string
	Cause   error
}

// HyperRequestBuilder means the request could not be built.
type HyperRequestBuilder struct {
	Reason string
}

// HyperServerError is a non-success response from Target.
type HyperServerError struct {
	Target     string
	StatusCode int
}

// HyperDeserialize means the response body could not be decoded.
type HyperDeserialize struct {
	Reason string
}

func (HyperCustom) hyperErrorType()         {}
func (HyperRequestBuilder) hyperErrorType() {}
func (HyperServerError) hyperErrorType()    {}
func (HyperDeserialize) hyperErrorType()    {}

func (e HyperCustom) String() string         { return renderHyper(e) }
func (e HyperRequestBuilder) String() string { return renderHyper(e) }
func (e HyperServerError) String() string    { return renderHyper(e) }
func (e HyperDeserialize) String() string    { return renderHyper(e) }

func renderHyper(e HyperErrorType) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case HyperCustom:
		return fmt.Sprintf("%s: %s", e.Context, errText(e.Cause))
	case HyperRequestBuilder:
		return "Failed to build request with error: " + e.Reason
	case HyperServerError:
		return fmt.Sprintf("Failed to get response from %s, status code: %s", e.Target, StatusText(e.StatusCode))
	case HyperDeserialize:
		return "Deserialization failed: " + e.Reason
	default:
		// pointers to the variants above
		return e.String()
	}
}

// WireServerErrorType names the wire server call that failed.
type WireServerErrorType int

const (
	WireServerTelemetry WireServerErrorType = iota
	WireServerGoalState
	WireServerSharedConfig
)

func (t WireServerErrorType) String() string {
	switch t {
	case WireServerTelemetry:
		return "Telemetry call to wire server failed"
	case WireServerGoalState:
		return "Goal state call to wire server failed"
	case WireServerSharedConfig:
		return "Shared config call to wire server failed"
	default:
		return fmt.Sprintf("WireServerErrorType(%d) call to wire server failed", int(t))
	}
}

// KeyErrorType is the closed set of key latch failures:
// KeyStatusValidation, SendKeyRequest, KeyResponse and ParseKeyURL.
type KeyErrorType interface {
	fmt.Stringer
	keyErrorType()
}

// KeyStatusValidation means a key status returned by the wire server was rejected.
type KeyStatusValidation struct {
	Detail string
}

// SendKeyRequest means the Action key request could not be sent.
// InnerText is the rendered text of the underlying failure.
type SendKeyRequest struct {
	Action    string
	InnerText string
}

// KeyResponse is a non-success response to the Action key request.
type KeyResponse struct {
	Action     string
	StatusCode int
}

// ParseKeyURL means Path could not be joined onto Base.
type ParseKeyURL struct {
	Base  string
	Path  string
	Cause error
}

func (KeyStatusValidation) keyErrorType() {}
func (SendKeyRequest) keyErrorType()      {}
func (KeyResponse) keyErrorType()         {}
func (ParseKeyURL) keyErrorType()         {}

func (e KeyStatusValidation) String() string { return renderKey(e) }
func (e SendKeyRequest) String() string      { return renderKey(e) }
func (e KeyResponse) String() string         { return renderKey(e) }
func (e ParseKeyURL) String() string         { return renderKey(e) }

func renderKey(e KeyErrorType) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case KeyStatusValidation:
		return "Key status validation failed with the error: " + e.Detail
	case SendKeyRequest:
		return fmt.Sprintf("Failed to send %s key with error: %s", e.Action, e.InnerText)
	case KeyResponse:
		return fmt.Sprintf("Failed to %s key with status code: %s", e.Action, StatusText(e.StatusCode))
	case ParseKeyURL:
		return fmt.Sprintf("Failed to join %s and %s with error: %s", e.Base, e.Path, errText(e.Cause))
	default:
		return e.String()
	}
}

// StatusText renders an HTTP status code with its reason phrase, e.g. "500 Internal Server Error".
func StatusText(code int) string {
	reason := http.StatusText(code)
	if reason == "" {
		reason = "<unknown status code>"
	}
	return fmt.Sprintf("%d %s", code, reason)
}

func errText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
