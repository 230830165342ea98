package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const ResetSubject = "Your Password Reset Token"

var niceEmail = template.Must(template.New("email").Parse(`
<div class="email" style="border: 1px solid black; padding: 20px; font-family: sans-serif; font-size: 20px; line-height: 2;">
<h2>Hello There!</h2>
<p>{{.Text}}</p>
{{if .Link}}<p><a href="{{.Link}}">Reset Your Password Now &gt;&gt;</a></p>{{end}}
<p>{{.SignOff}}</p>
</div>
`))

// ResetLink builds {frontendURL}/reset?resetToken={token}.
func ResetLink(frontendURL, token string) (string, error) {
	base, err := url.Parse(strings.TrimRight(frontendURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid frontend url: %w", err)
	}
	link := base.JoinPath("reset")
	q := link.Query()
	q.Set("resetToken", token)
	link.RawQuery = q.Encode()
	return link.String(), nil
}

// RenderResetEmail wraps the reset link in the standard HTML layout.
func RenderResetEmail(link, signOff string) (string, error) {
	var buf bytes.Buffer
	err := niceEmail.Execute(&buf, struct {
		Text    string
		Link    template.URL
		SignOff string
	}{
		Text:    "Your password reset token is here:",
		Link:    template.URL(link),
		SignOff: signOff,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
