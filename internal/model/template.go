// internal/model/template.go
package model

import "time"

// EmphasisText is the template emphasis type that enables the emtitle field.
const EmphasisText = "TEXT"

type Template struct {
	ID         string     `db:"id" json:"id,omitempty"`
	Code       string     `db:"template_code" json:"template_code"`
	Name       string     `db:"template_name" json:"template_name"`
	Content    string     `db:"template_content" json:"template_content,omitempty"`
	Status     string     `db:"status" json:"status,omitempty"`
	InspStatus string     `db:"insp_status" json:"insp_status,omitempty"`
	Buttons    []Button   `db:"buttons" json:"buttons,omitempty"`
	SenderKey  string     `db:"sender_key" json:"sender_key,omitempty"`
	Type       string     `db:"template_type" json:"template_type,omitempty"`
	EmType     string     `db:"template_em_type" json:"template_em_type,omitempty"`
	Title      string     `db:"template_title" json:"template_title,omitempty"`
	Subtitle   string     `db:"template_subtitle" json:"template_subtitle,omitempty"`
	ImageName  string     `db:"template_image_name" json:"template_image_name,omitempty"`
	ImageURL   string     `db:"template_image_url" json:"template_image_url,omitempty"`
	CDate      *time.Time `db:"cdate" json:"cdate,omitempty"`
	Comments   string     `db:"comments" json:"comments,omitempty"`
	SyncedAt   *time.Time `db:"synced_at" json:"synced_at,omitempty"`
}

// Emphasis returns the template's default emtitle, empty unless the
// emphasis type is TEXT.
func (t *Template) Emphasis() string {
	if t == nil || t.EmType != EmphasisText {
		return ""
	}
	if t.Title != "" {
		return t.Title
	}
	return t.Subtitle
}

type TemplateSyncResult struct {
	TotalFromProvider int       `json:"totalFromAligo"`
	Inserted          int       `json:"inserted"`
	Updated           int       `json:"updated"`
	Deleted           int       `json:"deleted"`
	SyncedAt          time.Time `json:"syncedAt"`
}
