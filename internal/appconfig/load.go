package appconfig

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// file mirrors the TOML layout of a deployment configuration.
type file struct {
	GlobalConfiguration map[string]map[string]any `toml:"global_configuration"`
	ConsentTypes        []consentTypeFile         `toml:"consent_type"`
	LabClinicAPI        LabClinicAPISetup         `toml:"lab_clinic_api"`
	Lab                 map[string]labFile        `toml:"lab"`
	Labeling            LabelingSetup             `toml:"labeling"`
	Holidays            map[string]time.Time      `toml:"holidays"`
}

type consentTypeFile struct {
	AppLabel      string    `toml:"app_label"`
	ModelName     string    `toml:"model_name"`
	Version       string    `toml:"version"`
	StartDatetime time.Time `toml:"start_datetime"`
	EndDatetime   time.Time `toml:"end_datetime"`
}

type labFile struct {
	Destinations []DestinationSetup `toml:"destination"`
	AliquotTypes []AliquotTypeSetup `toml:"aliquot_type"`
	Panels       []PanelSetup       `toml:"panel"`
	Profiles     []ProfileSetup     `toml:"profile"`
	ProfileItems []profileItemFile  `toml:"profile_item"`
}

type profileItemFile struct {
	ProfileName string  `toml:"profile_name"`
	AlphaCode   string  `toml:"alpha_code"`
	Volume      float64 `toml:"volume"`
	Count       int     `toml:"count"`
}

// Names BurntSushi/toml gives the locations of values without an offset.
const (
	localDatetime = "datetime-local"
	localDate     = "date-local"
	localTime     = "time-local"
)

// Load reads a deployment configuration from a TOML file. Local dates and
// datetimes are interpreted in loc.
func Load(path string, loc *time.Location) (*AppConfiguration, error) {
	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	app, err := f.build(loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return app, nil
}

// Parse reads a deployment configuration from TOML text.
func Parse(data string, loc *time.Location) (*AppConfiguration, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return f.build(loc)
}

// checkUndecoded rejects keys that map to no field. Keys under
// global_configuration are free-form and always decoded.
func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("unknown key %q", keys[0].String())
	}
	return nil
}

func (f *file) build(loc *time.Location) (*AppConfiguration, error) {
	if loc == nil {
		loc = time.UTC
	}
	app := &AppConfiguration{
		GlobalConfiguration: make(GlobalConfiguration, len(f.GlobalConfiguration)),
		LabClinicAPI:        f.LabClinicAPI,
		Lab:                 make(map[string]LabSetup, len(f.Lab)),
		Labeling:            f.Labeling,
	}

	for catName, attrs := range f.GlobalConfiguration {
		cat := make(Category, len(attrs))
		for attr, raw := range attrs {
			s, err := settingFromTOML(raw, loc)
			if err != nil {
				return nil, fmt.Errorf("global_configuration.%s.%s: %w", catName, attr, err)
			}
			cat[attr] = s
		}
		app.GlobalConfiguration[catName] = cat
	}

	for i, ct := range f.ConsentTypes {
		if ct.StartDatetime.IsZero() {
			return nil, fmt.Errorf("consent_type[%d]: start_datetime is required", i)
		}
		app.ConsentTypes = append(app.ConsentTypes, ConsentTypeSetup{
			AppLabel:      ct.AppLabel,
			ModelName:     ct.ModelName,
			Version:       ct.Version,
			StartDatetime: localize(ct.StartDatetime, loc),
			EndDatetime:   localize(ct.EndDatetime, loc),
		})
	}

	for group, lf := range f.Lab {
		ls := LabSetup{
			Destinations: lf.Destinations,
			AliquotTypes: lf.AliquotTypes,
			Panels:       lf.Panels,
			Profiles:     lf.Profiles,
		}
		for _, pi := range lf.ProfileItems {
			ls.ProfileItems = append(ls.ProfileItems, ProfileItemSetup{
				ProfileName: pi.ProfileName,
				AlphaCode:   pi.AlphaCode,
				Volume:      decimal.NewFromFloat(pi.Volume),
				Count:       pi.Count,
			})
		}
		app.Lab[group] = ls
	}

	for _, name := range slices.Sorted(maps.Keys(f.Holidays)) {
		t := f.Holidays[name]
		if t.Location().String() != localDate {
			return nil, fmt.Errorf("holidays.%s: want a local date, got %s", name, t.Format(time.RFC3339))
		}
		app.Holidays = append(app.Holidays, HolidaySetup{Name: name, Date: civil.DateOf(t)})
	}
	slices.SortStableFunc(app.Holidays, func(a, b HolidaySetup) int {
		return a.Date.DaysSince(b.Date)
	})

	return app, nil
}

// settingFromTOML maps a decoded TOML value to a Setting. An inline table
// with a value key carries an explicit convert flag.
func settingFromTOML(raw any, loc *time.Location) (Setting, error) {
	if tbl, ok := raw.(map[string]any); ok {
		v, ok := tbl["value"]
		if !ok {
			return Setting{}, fmt.Errorf("table without a value key")
		}
		conv := true
		if c, ok := tbl["convert"]; ok {
			b, ok := c.(bool)
			if !ok {
				return Setting{}, fmt.Errorf("convert must be a boolean, got %T", c)
			}
			conv = b
		}
		for k := range tbl {
			if k != "value" && k != "convert" {
				return Setting{}, fmt.Errorf("unknown key %q", k)
			}
		}
		native, err := nativeFromTOML(v, loc)
		if err != nil {
			return Setting{}, err
		}
		return Setting{Value: native, Convert: conv}, nil
	}
	native, err := nativeFromTOML(raw, loc)
	if err != nil {
		return Setting{}, err
	}
	return Typed(native), nil
}

func nativeFromTOML(raw any, loc *time.Location) (any, error) {
	switch v := raw.(type) {
	case bool, int64, string:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case time.Time:
		switch v.Location().String() {
		case localDate:
			return civil.DateOf(v), nil
		case localTime:
			return nil, fmt.Errorf("local time %s has no date", v.Format("15:04:05"))
		}
		return localize(v, loc), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// localize reinterprets a TOML local datetime as wall-clock time in loc.
// Values with an offset are returned unchanged.
func localize(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	switch t.Location().String() {
	case localDatetime, localDate:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return t
}
