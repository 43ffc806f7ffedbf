// internal/model/alimtalk.go
package model

type Button struct {
	Name         string `json:"name"`
	LinkType     string `json:"linkType"`
	LinkTypeName string `json:"linkTypeName"`
	LinkMo       string `json:"linkMo"`
	LinkPc       string `json:"linkPc"`
}

type Recipient struct {
	PhoneNumber     string            `json:"phoneNumber"`
	Name            string            `json:"name"`
	Variables       map[string]string `json:"variables,omitempty"`
	Content         string            `json:"content,omitempty"`
	EmTitle         string            `json:"emtitle,omitempty"`
	Buttons         []Button          `json:"buttons,omitempty"`
	FailoverSubject string            `json:"failoverSubject,omitempty"`
	FailoverMessage string            `json:"failoverMessage,omitempty"`
}

// HasFailover reports whether the recipient carries a complete LMS fallback.
func (r Recipient) HasFailover() bool {
	return r.FailoverSubject != "" && r.FailoverMessage != ""
}

type SendRequest struct {
	TenantID     string      `json:"unionId"`
	SenderID     string      `json:"senderId"`
	TemplateCode string      `json:"templateCode"`
	TemplateName string      `json:"templateName,omitempty"`
	Title        string      `json:"title"`
	Content      string      `json:"content,omitempty"`
	NoticeID     *int64      `json:"noticeId,omitempty"`
	Recipients   []Recipient `json:"recipients"`
}

// SendingIdentity is the sender key and channel name a batch is dispatched under.
type SendingIdentity struct {
	SenderKey   string `json:"-"`
	ChannelName string `json:"channelName"`
	IsDefault   bool   `json:"isDefault"`
}
