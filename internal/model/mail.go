package model

// Forward is the resolution of a forwarding address to member mailboxes.
type Forward struct {
	Address    string   `json:"address"`
	Recipients []string `json:"recipients"`
	Note       string   `json:"note"`
}

// MailDraft is a rendered, unsent message.
type MailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
