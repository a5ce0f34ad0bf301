// Package keylatch translates failures seen while latching the wire server
// key into proxyerror values.
package keylatch

import (
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/rootless-containers/guestproxyagent/pkg/proxyerror"
)

const (
	ActionAcquire = "acquire"
	ActionPoll    = "poll"
)

const (
	AuthorizationSchemeHMAC = "Azure-HMAC-SHA256"
	KeyDeliveryMethodHTTP   = "http"
)

const (
	SecureChannelDisabled          = "disabled"
	SecureChannelWireServer        = "wireserver"
	SecureChannelWireServerAndIMDS = "wireserverandimds"
)

// KeyStatus is the part of the wire server key status response the agent checks
// before trusting the key.
type KeyStatus struct {
	AuthorizationScheme string `json:"authorizationScheme"`
	KeyDeliveryMethod   string `json:"keyDeliveryMethod"`
	KeyGUID             string `json:"keyGuid"`
	SecureChannelState  string `json:"secureChannelState"`
}

// ValidateKeyStatus rejects a key status the agent cannot act on.
func ValidateKeyStatus(ks KeyStatus) error {
	if ks.AuthorizationScheme != AuthorizationSchemeHMAC {
		return invalid("authorizationScheme", ks.AuthorizationScheme)
	}
	if ks.KeyDeliveryMethod != KeyDeliveryMethodHTTP {
		return invalid("keyDeliveryMethod", ks.KeyDeliveryMethod)
	}
	switch ks.SecureChannelState {
	case SecureChannelDisabled, SecureChannelWireServer, SecureChannelWireServerAndIMDS:
	default:
		return invalid("secureChannelState", ks.SecureChannelState)
	}
	return nil
}

func invalid(field, value string) error {
	return proxyerror.Key(proxyerror.KeyStatusValidation{
		Detail: fmt.Sprintf("unexpected %s %q", field, value),
	})
}

// DecodeKey decodes the hex encoded key identified by keyGUID.
func DecodeKey(keyGUID, hexKey string) ([]byte, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, proxyerror.Hex(keyGUID, err)
	}
	return b, nil
}

// JoinKeyURL resolves path against base.
func JoinKeyURL(base, path string) (*url.URL, error) {
	b, err := url.Parse(base)
	if err != nil {
		return nil, proxyerror.Key(proxyerror.ParseKeyURL{Base: base, Path: path, Cause: err})
	}
	p, err := url.Parse(path)
	if err != nil {
		return nil, proxyerror.Key(proxyerror.ParseKeyURL{Base: base, Path: path, Cause: err})
	}
	return b.ResolveReference(p), nil
}

// CheckKeyResponse fails unless statusCode is 2XX.
func CheckKeyResponse(action string, statusCode int) error {
	if statusCode/100 != 2 {
		return proxyerror.Key(proxyerror.KeyResponse{Action: action, StatusCode: statusCode})
	}
	return nil
}

// SendFailure reports that the action key request could not be sent.
// Only the rendered text of err is kept.
func SendFailure(action string, err error) error {
	return proxyerror.Key(proxyerror.SendKeyRequest{Action: action, InnerText: err.Error()})
}
