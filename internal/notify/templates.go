package notify

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const welcomeText = `Hi {{.Name}},

Welcome to TODO App! We're excited to have you on board.

You can now:
- Create and manage your TODO items
- Set priorities and due dates
- Get email notifications for new TODOs

Start organizing your tasks today!

Best regards,
TODO App Team
`

const welcomeHTML = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4CAF50;">Welcome to TODO App! 🎉</h2>
    <p>Hi <strong>{{.Name}}</strong>,</p>
    <p>Welcome to TODO App! We're excited to have you on board.</p>
    <ul>
      <li>Create and manage your TODO items</li>
      <li>Set priorities and due dates</li>
      <li>Get email notifications for new TODOs</li>
    </ul>
    <p style="color: #666; font-size: 14px;">Best regards,<br>TODO App Team</p>
  </div>
</body>
</html>
`

const todoText = `Hi {{.Name}},

You've successfully created a new TODO item:

Title: {{.TodoTitle}}
{{if .TodoDescription}}Description: {{.TodoDescription}}
{{end}}
You can manage your TODOs by logging into your account.

Best regards,
TODO App Team
`

const todoHTML = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4CAF50;">New TODO Created! 📝</h2>
    <p>Hi <strong>{{.Name}}</strong>,</p>
    <p>You've successfully created a new TODO item:</p>
    <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
      <h3 style="margin-top: 0;">{{.TodoTitle}}</h3>
      {{if .TodoDescription}}<p style="margin-bottom: 0;"><strong>Description:</strong> {{.TodoDescription}}</p>{{end}}
    </div>
    <p>You can manage your TODOs by logging into your account.</p>
    <p style="color: #666; font-size: 14px;">Best regards,<br>TODO App Team</p>
  </div>
</body>
</html>
`

type bodyTemplates struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

var templates = map[Kind]bodyTemplates{
	KindWelcome: {
		text: texttemplate.Must(texttemplate.New("welcome.txt").Parse(welcomeText)),
		html: htmltemplate.Must(htmltemplate.New("welcome.html").Parse(welcomeHTML)),
	},
	KindTodoCreated: {
		text: texttemplate.Must(texttemplate.New("todo.txt").Parse(todoText)),
		html: htmltemplate.Must(htmltemplate.New("todo.html").Parse(todoHTML)),
	},
}

func renderBodies(msg Message) (string, string, error) {
	tpl := templates[msg.Kind]
	var text, html bytes.Buffer
	if err := tpl.text.Execute(&text, msg); err != nil {
		return "", "", err
	}
	if err := tpl.html.Execute(&html, msg); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}
