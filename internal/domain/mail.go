package domain

type MailType string

const (
	MailAccountCreated   MailType = "account_created"
	MailAccountActivated MailType = "account_activated"
	MailAccountRejected  MailType = "account_rejected"
	MailPasswordReset    MailType = "password_reset"
	MailNotification     MailType = "notification"
)

type MailMessage struct {
	Type MailType `json:"type"`
	To   string   `json:"to"`
	Data MailData `json:"data"`
}

type MailData struct {
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	ApproverName        string    `json:"approverName,omitempty"`
	ResetToken          string    `json:"resetToken,omitempty"`
	Expiration          int       `json:"expiration,omitempty"` // minutes
	NotificationType    string    `json:"notificationType,omitempty"`
	NotificationDetails JSONValue `json:"notificationDetails,omitempty"`
}
