package emails

import (
	"fmt"
	"strings"
	"time"
)

// Brand theme for the shared mail layout.
const (
	themePrimary   = "#8A5A2B"
	themeTextMain  = "#2B2117"
	themeTextMuted = "#8C7B6A"
	themeBgBody    = "#F5F0E6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps a content fragment in the shared Anticair'App mail shell.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en" xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Anticair'App</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; }
    table { border-collapse: collapse; }
    body, td, p, a, li { font-family: Georgia, 'Times New Roman', serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { color: %s; font-size: 24px; margin-top: 0; margin-bottom: 20px; }
    .content-body h2 { color: %s; font-size: 18px; margin-top: 24px; margin-bottom: 12px; }
    .footer-text { color: %s; font-size: 13px; line-height: 1.5; }
    @media only screen and (max-width: 600px) { .main-container { width: 100%% !important; } .mobile-p { padding-left: 20px !important; padding-right: 20px !important; } }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table class="main-container" role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="width: 600px; background-color: %s; border-radius: 8px; overflow: hidden;">
          <tr>
            <td align="center" style="padding: 40px 0 24px 0;">
              <span style="font-size: 28px; color: %s; letter-spacing: 1px;">Anticair'App</span>
            </td>
          </tr>
          <tr>
            <td class="content-body mobile-p" style="padding: 0 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td style="padding: 0 48px;"><div style="height: 1px; background-color: #E0D5C2; width: 100%%;"></div></td>
          </tr>
          <tr>
            <td class="mobile-p" align="center" style="padding: 28px 48px 36px 48px;">
              <p class="footer-text" style="margin: 0;">&copy; %d Anticair'App. All rights reserved.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themePrimary, themeTextMuted,
		themeBgBody, themeBgBody, themeWhite, themePrimary, contentHTML, year)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
