package api

// Version is the path prefix of the status API.
const Version = "v1"

type ErrorJSON struct {
	Message string `json:"message"`
}
