package dispatch

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// inviteData feeds the invitation templates.
type inviteData struct {
	VolunteerName string
	RoleType      string
	PlanTitle     string
	ServiceDate   string
	AcceptURL     string
	DeclineURL    string
}

// reminderData feeds the reminder templates.
type reminderData struct {
	VolunteerName string
	RoleType      string
	PlanTitle     string
	ServiceDate   string
}

var inviteHTML = template.Must(template.New("invite").Parse(`<p>Hi {{.VolunteerName}},</p>
<p>You are invited to serve as <strong>{{.RoleType}}</strong> for {{.PlanTitle}} on {{.ServiceDate}}.</p>
<p><a href="{{.AcceptURL}}">Accept</a> &nbsp;|&nbsp; <a href="{{.DeclineURL}}">Decline</a></p>
<p>Thank you for serving!</p>`))

var reminderHTML = template.Must(template.New("reminder").Parse(`<p>Hi {{.VolunteerName}},</p>
<p>This is a reminder that you are serving as <strong>{{.RoleType}}</strong> for {{.PlanTitle}} on {{.ServiceDate}}.</p>
<p>See you there!</p>`))

const dateLayout = "Monday, January 2, 2006"

func renderInvite(data inviteData) (subject, text, html string, err error) {
	subject = fmt.Sprintf("Invitation to serve: %s on %s", data.RoleType, data.ServiceDate)

	var sb strings.Builder
	if err = inviteHTML.Execute(&sb, data); err != nil {
		return "", "", "", fmt.Errorf("render invite: %w", err)
	}
	html = sb.String()

	text = fmt.Sprintf(
		"Hi %s,\n\nYou are invited to serve as %s for %s on %s.\n\nAccept: %s\nDecline: %s\n\nThank you for serving!",
		data.VolunteerName, data.RoleType, data.PlanTitle, data.ServiceDate, data.AcceptURL, data.DeclineURL,
	)
	return subject, text, html, nil
}

func renderReminder(data reminderData) (subject, text, html string, err error) {
	subject = fmt.Sprintf("Reminder: %s on %s", data.RoleType, data.ServiceDate)

	var sb strings.Builder
	if err = reminderHTML.Execute(&sb, data); err != nil {
		return "", "", "", fmt.Errorf("render reminder: %w", err)
	}
	html = sb.String()

	text = fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that you are serving as %s for %s on %s.\n\nSee you there!",
		data.VolunteerName, data.RoleType, data.PlanTitle, data.ServiceDate,
	)
	return subject, text, html, nil
}

func formatServiceDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
