package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"golang.org/x/oauth2"

	"github.com/peti-app/peti-server/internal/config"
)

// Mailer delivers transactional email through an OAuth2-authenticated
// SMTP relay. Callers decide whether a failure is fatal; registration
// and login treat delivery as best-effort.
type Mailer struct {
	host   string
	port   string
	user   string
	appURL string
	tokens oauth2.TokenSource
}

func New(cfg *config.Config) *Mailer {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.SMTPClientID,
		ClientSecret: cfg.SMTPClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	ts := oauthCfg.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.SMTPRefreshToken,
	})

	return &Mailer{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		user:   cfg.SMTPUser,
		appURL: cfg.AppURL,
		tokens: oauth2.ReuseTokenSource(nil, ts),
	}
}

func (m *Mailer) SendVerification(to, name, userID, token string) error {
	link := fmt.Sprintf("%slogin/%s/verify/%s", m.appURL, userID, token)
	body, err := renderVerification(name, link)
	if err != nil {
		return err
	}
	return m.Send(to, "Email verification", body)
}

func (m *Mailer) SendPasswordReset(to, name, userID, token string) error {
	link := fmt.Sprintf("%sforgotmypassword/%s/%s/", m.appURL, userID, token)
	body, err := renderPasswordReset(name, link)
	if err != nil {
		return err
	}
	return m.Send(to, "Password reset", body)
}

func (m *Mailer) Send(to, subject, bodyHTML string) error {
	if m.host == "" || m.user == "" {
		return errors.New("mail relay is not configured")
	}

	tok, err := m.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain relay access token: %v", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		m.user, to, subject, bodyHTML,
	))

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := &xoauth2Auth{user: m.user, accessToken: tok.AccessToken}
	return smtp.SendMail(addr, auth, m.user, []string{to}, msg)
}

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by OAuth2 SMTP
// relays such as Gmail.
type xoauth2Auth struct {
	user        string
	accessToken string
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("XOAUTH2 requires a TLS connection")
	}
	resp := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.user, a.accessToken)
	return "XOAUTH2", []byte(resp), nil
}

func (a *xoauth2Auth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		// Server sent an error challenge; reply with an empty line so it
		// terminates the exchange with the real SMTP error.
		return []byte(""), nil
	}
	return nil, nil
}
