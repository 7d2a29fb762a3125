package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var credentialsStateVars = []string{"Ids", "PublicKey", "SequenceNumber"}

var credentialsActionNames = []string{
	"Set", "Clear", "SetEnabled", "Get", "Login", "ReLogin",
	"GetIds", "GetPublicKey", "GetSequenceNumber",
}

type credentialsService struct {
	Set               func(id, username, encryptedPassword string) bool
	Clear             func(id string) bool
	SetEnabled        func(id string, enabled bool) bool
	Get               func(id string) (username, encryptedPassword string, enabled, ok bool)
	Login             func(id string) (token string, ok bool)
	ReLogin           func(id, currentToken string) (newToken string, ok bool)
	GetIds            func() string
	GetPublicKey      func() string
	GetSequenceNumber func() int
}

func credentialsActions(c credentialsService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Set": func(args map[string]string) (map[string]string, error) {
			if !c.Set(args["Id"], args["UserName"], args["Password"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"Clear": func(args map[string]string) (map[string]string, error) {
			c.Clear(args["Id"])
			return map[string]string{}, nil
		},
		"SetEnabled": func(args map[string]string) (map[string]string, error) {
			c.SetEnabled(args["Id"], atob(args["Value"]))
			return map[string]string{}, nil
		},
		"Get": func(args map[string]string) (map[string]string, error) {
			user, epass, enabled, ok := c.Get(args["Id"])
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{
				"UserName": user, "Password": epass, "Enabled": btoa(enabled),
			}, nil
		},
		"Login": func(args map[string]string) (map[string]string, error) {
			token, ok := c.Login(args["Id"])
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{"Token": token}, nil
		},
		"ReLogin": func(args map[string]string) (map[string]string, error) {
			token, ok := c.ReLogin(args["Id"], args["CurrentToken"])
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{"NewToken": token}, nil
		},
		"GetIds": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Ids": c.GetIds()}, nil
		},
		"GetPublicKey": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"PublicKey": c.GetPublicKey()}, nil
		},
		"GetSequenceNumber": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(c.GetSequenceNumber())}, nil
		},
	}
}
