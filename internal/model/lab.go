package model

import "github.com/shopspring/decimal"

// AliquotType is a specimen aliquot type, e.g. Whole Blood (WB, 02).
type AliquotType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AlphaCode   string `json:"alpha_code"`
	NumericCode string `json:"numeric_code"`
}

// Panel is a lab test panel. Its aliquot types are linked separately by
// alpha code.
type Panel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PanelType string `json:"panel_type"`
}

// RequisitionPanel mirrors a Panel for the requisition forms.
type RequisitionPanel struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	AliquotTypeAlphaCode string `json:"aliquot_type_alpha_code"`
}

// Profile is a processing profile producing aliquots from a primary type.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AlphaCode string `json:"alpha_code"`
}

// ProfileItem is one aliquot produced by a profile.
type ProfileItem struct {
	ID          string          `json:"id"`
	ProfileName string          `json:"profile_name"`
	AlphaCode   string          `json:"alpha_code"`
	Volume      decimal.Decimal `json:"volume"`
	Count       int             `json:"count"`
}

// Destination is a specimen shipping destination.
type Destination struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Tel     string `json:"tel"`
	Email   string `json:"email"`
}
