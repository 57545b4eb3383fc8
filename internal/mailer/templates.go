package mailer

import (
	"bytes"
	"html/template"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`
<h1>Hello {{.Name}}, thank you for registering.</h1>
<p>Open the link below to confirm your email address and sign in for the first time.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Thank you,<br/>the team.</p>
`))

var passwordResetTemplate = template.Must(template.New("passwordReset").Parse(`
<h1>Hello {{.Name}}.</h1>
<p>Open the link below to set a new password.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not request a reset, you can ignore this email.</p>
<p>Thank you,<br/>the team.</p>
`))

type linkData struct {
	Name string
	Link string
}

func renderVerification(name, link string) (string, error) {
	return render(verificationTemplate, linkData{Name: name, Link: link})
}

func renderPasswordReset(name, link string) (string, error) {
	return render(passwordResetTemplate, linkData{Name: name, Link: link})
}

func render(t *template.Template, data linkData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
