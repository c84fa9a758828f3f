package mail

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var subjects = map[domain.MailType]string{
	domain.MailAccountCreated:   "Bienvenue sur MyNurseShift - Compte créé avec succès",
	domain.MailAccountActivated: "Votre compte MyNurseShift est maintenant actif",
	domain.MailAccountRejected:  "Demande d'inscription refusée - MyNurseShift",
	domain.MailPasswordReset:    "Réinitialisation de votre mot de passe MyNurseShift",
	domain.MailNotification:     "MyNurseShift - %s",
}

// Renderer turns queued mail messages into a subject and an HTML body.
type Renderer struct {
	templates   map[domain.MailType]*template.Template
	frontendURL string
}

type view struct {
	domain.MailData
	To          string
	FullName    string
	FrontendURL string
	Details     string
}

func NewRenderer(frontendURL string) (*Renderer, error) {
	templates := make(map[domain.MailType]*template.Template, len(subjects))
	for mailType := range subjects {
		tmpl, err := template.ParseFS(templatesFS, "templates/base.html", fmt.Sprintf("templates/%s.html", mailType))
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", mailType, err)
		}
		templates[mailType] = tmpl
	}

	return &Renderer{
		templates:   templates,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}, nil
}

func (r *Renderer) Render(msg domain.MailMessage) (string, string, error) {
	tmpl, ok := r.templates[msg.Type]
	if !ok {
		return "", "", fmt.Errorf("unsupported mail type %q", msg.Type)
	}

	subject := subjects[msg.Type]
	if msg.Type == domain.MailNotification {
		subject = fmt.Sprintf(subject, msg.Data.NotificationType)
	}

	v := view{
		MailData:    msg.Data,
		To:          msg.To,
		FullName:    strings.TrimSpace(msg.Data.FirstName + " " + msg.Data.LastName),
		FrontendURL: r.frontendURL,
		Details:     detailsText(msg.Data.NotificationDetails),
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "base", v); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Type, err)
	}
	return subject, body.String(), nil
}

// detailsText shows a JSON string as plain text and anything else as compact JSON.
func detailsText(details domain.JSONValue) string {
	if details.IsNull() {
		return ""
	}
	var s string
	if err := json.Unmarshal(details, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, details); err != nil {
		return string(details)
	}
	return compact.String()
}
