package mailer

type Service interface {
	SendOTPEmail(toEmail, toName, otp string) error
	SendWelcomeEmail(toEmail, toName string) error
}
