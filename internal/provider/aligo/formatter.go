package aligo

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/dlswn666/johapon-api/internal/model"
)

// MaxBatchSize is the provider's hard per-call receiver limit.
const MaxBatchSize = 500

// Credentials authenticate the account against the Aligo API.
type Credentials struct {
	APIKey      string
	UserID      string
	SenderPhone string
}

// Batch is one contiguous slice of a request's recipients.
type Batch struct {
	Index        int
	TemplateCode string
	Title        string
	Recipients   []model.Recipient
}

// Payload is the form body of one send call.
type Payload struct {
	BatchIndex     int
	RecipientCount int
	Form           url.Values
}

// Encode returns the wire body. url.Values sorts keys, so identical payloads
// encode to identical bytes.
func (p Payload) Encode() string {
	return p.Form.Encode()
}

type Formatter struct {
	Credentials Credentials
}

func NewFormatter(creds Credentials) *Formatter {
	return &Formatter{Credentials: creds}
}

type buttonPayload struct {
	Button []model.Button `json:"button"`
}

// Format builds the send payload for one batch. tpl may be nil, in which
// case only request-supplied content is used.
func (f *Formatter) Format(batch Batch, tpl *model.Template, id model.SendingIdentity) Payload {
	form := url.Values{}
	form.Set("apikey", f.Credentials.APIKey)
	form.Set("userid", f.Credentials.UserID)
	form.Set("senderkey", id.SenderKey)
	form.Set("tpl_code", batch.TemplateCode)
	form.Set("sender", f.Credentials.SenderPhone)

	failover := false
	for _, r := range batch.Recipients {
		if r.HasFailover() {
			failover = true
			break
		}
	}

	for i, r := range batch.Recipients {
		idx := strconv.Itoa(i + 1)
		vars := r.Variables

		form.Set("receiver_"+idx, FormatPhoneNumber(r.PhoneNumber))
		form.Set("subject_"+idx, batch.Title)

		emtitle := r.EmTitle
		if emtitle == "" {
			emtitle = tpl.Emphasis()
		}
		if emtitle != "" {
			form.Set("emtitle_"+idx, Substitute(emtitle, vars))
		}

		form.Set("message_"+idx, Substitute(resolveMessage(r, tpl, batch.Title), vars))

		if buttons := resolveButtons(r, tpl); len(buttons) > 0 {
			out := make([]model.Button, len(buttons))
			for j, btn := range buttons {
				out[j] = model.Button{
					Name:         btn.Name,
					LinkType:     btn.LinkType,
					LinkTypeName: btn.LinkTypeName,
					LinkMo:       Substitute(btn.LinkMo, vars),
					LinkPc:       Substitute(btn.LinkPc, vars),
				}
			}
			form.Set("button_"+idx, encodeButtons(out))
		}

		if failover && r.HasFailover() {
			form.Set("fsubject_"+idx, Substitute(r.FailoverSubject, vars))
			form.Set("fmessage_"+idx, Substitute(r.FailoverMessage, vars))
		}
	}

	if failover {
		form.Set("failover", "Y")
	} else {
		form.Set("failover", "N")
	}

	return Payload{
		BatchIndex:     batch.Index,
		RecipientCount: len(batch.Recipients),
		Form:           form,
	}
}

// encodeButtons keeps '&' in links literal.
func encodeButtons(buttons []model.Button) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// only string fields, Encode cannot fail
	_ = enc.Encode(buttonPayload{Button: buttons})
	return strings.TrimSuffix(buf.String(), "\n")
}

func resolveMessage(r model.Recipient, tpl *model.Template, title string) string {
	if r.Content != "" {
		return r.Content
	}
	if tpl != nil && tpl.Content != "" {
		return tpl.Content
	}
	return title
}

func resolveButtons(r model.Recipient, tpl *model.Template) []model.Button {
	if len(r.Buttons) > 0 {
		return r.Buttons
	}
	if tpl != nil {
		return tpl.Buttons
	}
	return nil
}
