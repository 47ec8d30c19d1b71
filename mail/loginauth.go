package mail

import (
	"errors"
	"net/smtp"
)

// loginAuth implements the SMTP LOGIN authentication mechanism, which
// net/smtp does not provide directly (it only ships PLAIN and CRAM-MD5).
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, errors.New("mail: unexpected LOGIN auth challenge")
	}
}
