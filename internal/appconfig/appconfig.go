// Package appconfig declares what a deployment's configuration tables should
// contain. An AppConfiguration is usually loaded from a TOML file and handed
// to the reconciler.
package appconfig

import (
	"maps"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type AliquotTypeSetup struct {
	Name        string `toml:"name"`
	AlphaCode   string `toml:"alpha_code"`
	NumericCode string `toml:"numeric_code"`
}

type PanelSetup struct {
	Name                 string `toml:"name"`
	PanelType            string `toml:"panel_type"`
	AliquotTypeAlphaCode string `toml:"aliquot_type_alpha_code"`
}

type ProfileSetup struct {
	ProfileName string `toml:"profile_name"`
	AlphaCode   string `toml:"alpha_code"`
}

type ProfileItemSetup struct {
	ProfileName string
	AlphaCode   string
	Volume      decimal.Decimal
	Count       int
}

type DestinationSetup struct {
	Code    string `toml:"code"`
	Name    string `toml:"name"`
	Address string `toml:"address"`
	Tel     string `toml:"tel"`
	Email   string `toml:"email"`
}

// LabClinicAPISetup lists the aliquot types and panels shared by every lab
// group. Panel links are added, never cleared.
type LabClinicAPISetup struct {
	AliquotTypes []AliquotTypeSetup `toml:"aliquot_type"`
	Panels       []PanelSetup       `toml:"panel"`
}

// LabSetup is the configuration of one lab group. Panel links are reset to
// the declared aliquot type and a requisition panel is kept per panel.
type LabSetup struct {
	Destinations []DestinationSetup
	AliquotTypes []AliquotTypeSetup
	Panels       []PanelSetup
	Profiles     []ProfileSetup
	ProfileItems []ProfileItemSetup
}

type LabelPrinterSetup struct {
	CupsPrinterName    string `toml:"cups_printer_name"`
	CupsServerHostname string `toml:"cups_server_hostname"`
	CupsServerIP       string `toml:"cups_server_ip"`
	Default            bool   `toml:"default"`
}

type ClientSetup struct {
	Hostname     string `toml:"hostname"`
	PrinterName  string `toml:"printer_name"`
	CupsHostname string `toml:"cups_hostname"`
}

type ZplTemplateSetup struct {
	Name     string `toml:"name"`
	Template string `toml:"template"`
	Default  bool   `toml:"default"`
}

type LabelingSetup struct {
	LabelPrinters []LabelPrinterSetup `toml:"label_printer"`
	Clients       []ClientSetup       `toml:"client"`
	ZplTemplates  []ZplTemplateSetup  `toml:"zpl_template"`
}

// ConsentTypeSetup declares one consent version. A zero EndDatetime leaves
// the window open.
type ConsentTypeSetup struct {
	AppLabel      string
	ModelName     string
	Version       string
	StartDatetime time.Time
	EndDatetime   time.Time
}

type HolidaySetup struct {
	Name string
	Date civil.Date
}

// AppConfiguration is everything a deployment declares.
type AppConfiguration struct {
	// GlobalConfiguration holds deployment overrides; the reconciler merges
	// them over DefaultGlobalConfiguration.
	GlobalConfiguration GlobalConfiguration
	ConsentTypes        []ConsentTypeSetup
	LabClinicAPI        LabClinicAPISetup
	Lab                 map[string]LabSetup // keyed by lab group
	Labeling            LabelingSetup
	Holidays            []HolidaySetup
}

// LabGroups returns the lab group names in sorted order.
func (a *AppConfiguration) LabGroups() []string {
	return slices.Sorted(maps.Keys(a.Lab))
}

// Resolved returns the defaults with the deployment overrides applied.
func (a *AppConfiguration) Resolved() GlobalConfiguration {
	return Merge(DefaultGlobalConfiguration(), a.GlobalConfiguration)
}
