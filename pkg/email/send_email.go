package email

import (
	"crypto/tls"
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/mail.v2"

	"taskboard-api/utils"
)

// SendReplyNotification emails the author of a comment that someone
// replied to them. Best effort: callers fire and forget.
func SendReplyNotification(to string, replyBody string) error {
	password := os.Getenv("EMAIL_PASSWORD")
	emailAddress := os.Getenv("EMAIL_ADDRESS")
	if password == "" || emailAddress == "" {
		return errors.New("email credentials not configured")
	}

	host := utils.LoadDotEnvOr("SMTP_HOST", "smtp.gmail.com")
	port, err := strconv.Atoi(utils.LoadDotEnvOr("SMTP_PORT", "587"))
	if err != nil {
		port = 587
	}

	m := gomail.NewMessage()
	m.SetHeader("From", emailAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "New reply to your task board comment")
	m.SetBody("text/plain", "Someone replied to your comment:\n\n"+replyBody)

	d := gomail.NewDialer(host, port, emailAddress, password)

	// This is only needed when SSL/TLS certificate is not valid on server.
	// In production this should be set to false.
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	if err := d.DialAndSend(m); err != nil {
		log.Error().Err(err).Msg("Failed to send email")
		return err
	}

	return nil
}
