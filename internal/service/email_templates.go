package service

import "fmt"

func welcomeEmailTemplate(username, appName string) (subject, body string) {
	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`Hi %s,

Welcome to %s! Your account is ready.

Post a request whenever you need help, or browse open requests and share
what you know.

The %s Team`, username, appName, appName)
	return subject, body
}

func resetPasswordEmailTemplate(username, resetURL, appName string) (subject, body string) {
	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(`Hi %s,

Someone requested a password reset for your account. If this was you, open
the link below to choose a new password. The link works once and expires.

%s

If you did not request this, you can ignore this email.

The %s Team`, username, resetURL, appName)
	return subject, body
}

func newResponseEmailTemplate(responseID, requestID, appName string) (subject, body string) {
	subject = "New response"
	body = fmt.Sprintf(`A new response %s was posted to request %s.

The %s Team`, responseID, requestID, appName)
	return subject, body
}
