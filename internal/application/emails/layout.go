package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#2563EB"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EscapeHTML escapes user-supplied text before it goes into a template.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// EmailLayout wraps content in the shared branded layout.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Ride Circles</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content p { font-size: 16px; line-height: 1.6; margin: 0 0 20px 0; }
    .content h1 { font-size: 22px; margin: 0 0 16px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 28px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr><td class="footer" style="padding: 0 48px 32px 48px;">&copy; %d Ride Circles. You are receiving this email because an account was created with this address.</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeWhite, contentHTML, time.Now().Year())
}

func verificationContent(firstName, verifyLink string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Confirm your email address to start offering and joining rides in your circles.</p>
    <p><a href="%s" class="button">Verify my account</a></p>
    <p>The link expires in 3 days. If you did not create this account you can ignore this email.</p>
`, EscapeHTML(firstName), EscapeHTML(verifyLink))
}
