package mail

import (
	"text/template"

	"github.com/clinicore/user-service/internal/core/domain"
)

type message struct {
	subject string
	body    *template.Template
}

var messages = map[domain.NotificationKind]message{
	domain.NotifyWelcome: {
		subject: "Welcome to the clinic portal",
		body: template.Must(template.New("welcome").Parse(`Hello {{.Name}},

Your account has been created with the role {{.Role}}.
You can now sign in with {{.To}}.
`)),
	},
	domain.NotifyAccountActivated: {
		subject: "Your account has been activated",
		body: template.Must(template.New("activated").Parse(`Hello {{.Name}},

Your account has been re-activated. You can sign in again.
`)),
	},
	domain.NotifyVerification: {
		subject: "Verify your email address",
		body: template.Must(template.New("verification").Parse(`Hello {{.Name}},

Please confirm your email address by opening the link below:

{{.URL}}

If you did not create an account you can ignore this message.
`)),
	},
	domain.NotifyPasswordReset: {
		subject: "Reset your password",
		body: template.Must(template.New("reset").Parse(`Hello {{.Name}},

A password reset was requested for your account. Open the link below to choose a new password:

{{.URL}}

If you did not request this, you can ignore this message.
`)),
	},
}
