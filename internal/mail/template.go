package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/dtroode/encuentro-server/internal/model"
)

const passwordResetSubject = "Restablece tu contraseña"

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`Hola{{ if .Name }} {{ .Name }}{{ end }},

Recibimos una solicitud para restablecer la contraseña de tu cuenta.
Abre el siguiente enlace para elegir una nueva contraseña:

{{ .Link }}

El enlace vence el {{ .ExpiresAt }} y solo puede usarse una vez.
Si no solicitaste este cambio, puedes ignorar este mensaje.
`))

type passwordResetData struct {
	Name      string
	Link      string
	ExpiresAt string
}

// RenderPasswordReset builds the reset message for n.
func RenderPasswordReset(from string, n model.PasswordResetNotification) (model.Mail, error) {
	var body bytes.Buffer
	err := passwordResetTemplate.Execute(&body, passwordResetData{
		Name:      n.Name,
		Link:      n.Link,
		ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return model.Mail{}, fmt.Errorf("failed to render password reset mail: %w", err)
	}

	return model.Mail{
		From:    from,
		To:      n.Email,
		Subject: passwordResetSubject,
		Body:    body.String(),
	}, nil
}
