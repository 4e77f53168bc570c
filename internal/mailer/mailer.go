// Package mailer sends the leave summary workbook by email through SES.
package mailer

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/syrilster/leave-lop-console/internal/export"
)

var ErrNoRecipients = errors.New("no email recipients configured")

type Mailer struct {
	client    sesiface.SESAPI
	emailFrom string
	emailTo   string
}

func New(client sesiface.SESAPI, emailFrom string, emailTo string) *Mailer {
	return &Mailer{client: client, emailFrom: emailFrom, emailTo: emailTo}
}

// SendReport emails file as an attachment to every configured recipient.
func (m *Mailer) SendReport(ctx context.Context, subject string, body string, file *export.File) error {
	contextLogger := log.WithContext(ctx)

	recipients := populateEmailRecipients(m.emailTo)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.emailFrom)
	msg.SetHeader("To", m.emailTo)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(file.Name,
		gomail.SetHeader(map[string][]string{"Content-Type": {file.ContentType}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(file.Data)
			return err
		}),
	)

	var emailRaw bytes.Buffer
	if _, err := msg.WriteTo(&emailRaw); err != nil {
		contextLogger.WithError(err).Error("Error when writing email data")
		return errors.Wrap(err, "building report email")
	}

	emailParams := ses.SendRawEmailInput{
		Source:     aws.String(m.emailFrom),
		RawMessage: &ses.RawMessage{Data: emailRaw.Bytes()},
	}
	emailParams.SetDestinations(recipients)

	if _, err := m.client.SendRawEmailWithContext(ctx, &emailParams); err != nil {
		contextLogger.WithError(err).Error("Error when sending email")
		return errors.Wrap(err, "sending report email")
	}
	contextLogger.Infof("Sent %s to %d recipients", file.Name, len(recipients))
	return nil
}

func populateEmailRecipients(emailTo string) []*string {
	var emailRecipients []*string
	for _, recipient := range strings.Split(emailTo, ",") {
		if recipient = strings.TrimSpace(recipient); recipient != "" {
			emailRecipients = append(emailRecipients, aws.String(recipient))
		}
	}
	return emailRecipients
}
