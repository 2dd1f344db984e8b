package utils

// Email delivery is intentionally stubbed: messages are written to the
// process log instead of an outbound mail provider.  The call sites and
// signatures stay in place so a real sender can be dropped in later.

import "log"

// SendEmail logs an outbound email instead of delivering it.
func SendEmail(to, subject, body string) {
	log.Printf("email: to=%s subject=%q", to, subject)
	log.Printf("email: %s", body)
}

// SendAccountCreatedEmail notifies a freshly auto-created account of
// its login credentials.  This is the only channel through which the
// generated password leaves the process besides the creation response.
func SendAccountCreatedEmail(email, name, password string) {
	SendEmail(email, "Your service desk account",
		"Hello "+name+", an account was created for your service request. "+
			"Login: "+email+", temporary password: "+password+". "+
			"Please change it after signing in.")
}
