// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// NewAccountEmailData holds data for the account-created email.
type NewAccountEmailData struct {
	SiteName  string
	FirstName string
	Email     string
	Password  string
}

// BuildNewAccountEmail creates the welcome email carrying the member's
// generated password, with both HTML and text bodies.
func BuildNewAccountEmail(data NewAccountEmailData) Email {
	return Email{
		To:       data.Email,
		Subject:  "Your Login Credentials",
		TextBody: buildNewAccountText(data),
		HTMLBody: renderHTML("new_account", newAccountHTMLContent, data.SiteName, data),
	}
}

func buildNewAccountText(data NewAccountEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hello %s,\n\n", greetingName(data.FirstName)))
	buf.WriteString("Your account has been created successfully!\n\n")
	buf.WriteString(fmt.Sprintf("Email: %s\n", data.Email))
	buf.WriteString(fmt.Sprintf("Password: %s\n\n", data.Password))
	buf.WriteString("Sign in to see your family's weekly meal plan.\n")
	return buf.String()
}

// PlanUpdatedEmailData holds data for the weekly refresh email.
type PlanUpdatedEmailData struct {
	SiteName  string
	FirstName string
	Email     string
}

// BuildPlanUpdatedEmail creates the notice sent after a plan is regenerated.
// It carries no credentials.
func BuildPlanUpdatedEmail(data PlanUpdatedEmailData) Email {
	return Email{
		To:       data.Email,
		Subject:  "Your new weekly meal plan is ready",
		TextBody: buildPlanUpdatedText(data),
		HTMLBody: renderHTML("plan_updated", planUpdatedHTMLContent, data.SiteName, data),
	}
}

func buildPlanUpdatedText(data PlanUpdatedEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hello %s,\n\n", greetingName(data.FirstName)))
	buf.WriteString("A new 7-day meal plan has been prepared for your family.\n\n")
	buf.WriteString("Sign in to see this week's breakfasts, lunches and dinners.\n")
	return buf.String()
}

// DuplicateRejectedEmailData holds data for the rejected-submission email.
type DuplicateRejectedEmailData struct {
	SiteName string
	Email    string
}

// BuildDuplicateRejectedEmail creates the notice sent to an address that was
// already registered when a family submission named it.
func BuildDuplicateRejectedEmail(data DuplicateRejectedEmailData) Email {
	return Email{
		To:       data.Email,
		Subject:  "Meal Plan Submission Error",
		TextBody: buildDuplicateRejectedText(data),
		HTMLBody: renderHTML("duplicate_rejected", duplicateRejectedHTMLContent, data.SiteName, data),
	}
}

func buildDuplicateRejectedText(data DuplicateRejectedEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Your email %s is already registered. ", data.Email))
	buf.WriteString("Please resubmit the form with a different email or contact support.\n")
	return buf.String()
}

func greetingName(first string) string {
	if first == "" {
		return "there"
	}
	return first
}

type layoutData struct {
	SiteName string
	Data     any
}

func renderHTML(name, content, siteName string, data any) string {
	tmpl := template.Must(template.New(name).Parse(layoutHTMLTemplate))
	template.Must(tmpl.New("content").Parse(content))
	var buf bytes.Buffer
	_ = tmpl.ExecuteTemplate(&buf, name, layoutData{SiteName: siteName, Data: data})
	return buf.String()
}

const newAccountHTMLContent = `
<p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">Hello {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
<p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">Your account has been created successfully!</p>
<div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; margin-bottom: 24px;">
  <p style="margin: 0 0 8px; font-size: 14px; color: #1f2937;">Email: <strong>{{.Email}}</strong></p>
  <p style="margin: 0; font-size: 14px; color: #1f2937;">Password: <span style="font-family: 'Courier New', monospace; font-weight: 700; letter-spacing: 2px;">{{.Password}}</span></p>
</div>
<p style="margin: 0; font-size: 14px; color: #6b7280;">Sign in to see your family's weekly meal plan.</p>`

const planUpdatedHTMLContent = `
<p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">Hello {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
<p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">A new 7-day meal plan has been prepared for your family.</p>
<p style="margin: 0; font-size: 14px; color: #6b7280;">Sign in to see this week's breakfasts, lunches and dinners.</p>`

const duplicateRejectedHTMLContent = `
<p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">Your email <strong>{{.Email}}</strong> is already registered.</p>
<p style="margin: 0; font-size: 14px; color: #6b7280;">Please resubmit the form with a different email or contact support.</p>`

const layoutHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #15803d;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              {{with .Data}}{{template "content" .}}{{end}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this because your family signed up for weekly meal plans.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
