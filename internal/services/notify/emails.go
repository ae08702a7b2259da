package notify

import "fmt"

// JobCompletedEmail builds the HTML notice sent when an export finishes
func JobCompletedEmail(jobName, downloadURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #0f172a; color: #e2e8f0; }
    .container { max-width: 600px; margin: 0 auto; padding: 24px; }
    .header { background: linear-gradient(135deg, #0ea5e9, #3b82f6); padding: 24px; border-radius: 12px 12px 0 0; }
    .header h1 { color: white; margin: 0; font-size: 24px; }
    .content { background: #1e293b; padding: 24px; border-radius: 0 0 12px 12px; }
    .btn { display: inline-block; background: #0ea5e9; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; margin-top: 16px; }
    .footer { text-align: center; margin-top: 24px; color: #64748b; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Refero Analytics</h1>
    </div>
    <div class="content">
      <h2>Export Complete</h2>
      <p>Your report <strong>%s</strong> has been generated successfully and is ready for download.</p>
      <a href="%s" class="btn">Download Report</a>
      <p style="margin-top: 24px; color: #94a3b8;">This link will expire in 24 hours.</p>
    </div>
    <div class="footer">
      <p>Refero Analytics - Enterprise Reporting System</p>
    </div>
  </div>
</body>
</html>`, jobName, downloadURL)
}

// JobCompletedText is the plain text alternative for the completion notice
func JobCompletedText(jobName, downloadURL string) string {
	return fmt.Sprintf("Your report %q has been generated successfully.\n\nDownload: %s\n\nThis link will expire in 24 hours.\n", jobName, downloadURL)
}

// JobFailedEmail builds the HTML notice sent when an export fails
func JobFailedEmail(jobName, errorMessage string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #0f172a; color: #e2e8f0; }
    .container { max-width: 600px; margin: 0 auto; padding: 24px; }
    .header { background: linear-gradient(135deg, #ef4444, #dc2626); padding: 24px; border-radius: 12px 12px 0 0; }
    .header h1 { color: white; margin: 0; font-size: 24px; }
    .content { background: #1e293b; padding: 24px; border-radius: 0 0 12px 12px; }
    .error-box { background: #450a0a; border: 1px solid #ef4444; border-radius: 8px; padding: 16px; margin: 16px 0; }
    .footer { text-align: center; margin-top: 24px; color: #64748b; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Refero Analytics</h1>
    </div>
    <div class="content">
      <h2>Export Failed</h2>
      <p>Unfortunately, your report <strong>%s</strong> could not be generated.</p>
      <div class="error-box">
        <strong>Error:</strong> %s
      </div>
      <p>Please try again with a smaller date range or contact support if the issue persists.</p>
    </div>
    <div class="footer">
      <p>Refero Analytics - Enterprise Reporting System</p>
    </div>
  </div>
</body>
</html>`, jobName, errorMessage)
}

// JobFailedText is the plain text alternative for the failure notice
func JobFailedText(jobName, errorMessage string) string {
	return fmt.Sprintf("Your report %q could not be generated.\n\nError: %s\n\nPlease try again with a smaller date range or contact support if the issue persists.\n", jobName, errorMessage)
}
