package aligo

import "encoding/json"

// successCode is the Aligo result code for an accepted request.
const successCode = 0

type sendInfo struct {
	Type    string          `json:"type"`
	MID     json.RawMessage `json:"mid"`
	Current json.RawMessage `json:"current"`
	Unit    float64         `json:"unit"`
	Total   float64         `json:"total"`
	SCnt    int             `json:"scnt"`
	FCnt    int             `json:"fcnt"`
}

type sendResponse struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Info    *sendInfo `json:"info,omitempty"`
}

type templateButton struct {
	Ordering     int    `json:"ordering"`
	Name         string `json:"name"`
	LinkType     string `json:"linkType"`
	LinkTypeName string `json:"linkTypeName"`
	LinkMo       string `json:"linkMo"`
	LinkPc       string `json:"linkPc"`
	LinkAnd      string `json:"linkAnd"`
	LinkIos      string `json:"linkIos"`
}

type templateItem struct {
	TempltCode      string           `json:"templtCode"`
	TempltName      string           `json:"templtName"`
	TempltContent   string           `json:"templtContent"`
	TemplateType    string           `json:"templateType"`
	TemplateEmType  string           `json:"templateEmType"`
	TempltTitle     string           `json:"templtTitle"`
	TempltSubtitle  string           `json:"templtSubtitle"`
	TempltImageName string           `json:"templtImageName"`
	TempltImageURL  string           `json:"templtImageUrl"`
	SenderKey       string           `json:"senderKey"`
	Status          string           `json:"status"`
	InspStatus      string           `json:"inspStatus"`
	Buttons         []templateButton `json:"buttons"`
	CDate           string           `json:"cdate"`
	Comments        json.RawMessage  `json:"comments"`
}

type templateListResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	List    []templateItem `json:"list"`
}
