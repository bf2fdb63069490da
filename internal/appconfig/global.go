package appconfig

import (
	"maps"
	"sort"
)

// Setting is one declared attribute value. Convert false stores the value
// as a plain string that is never decoded into another kind.
type Setting struct {
	Value   any
	Convert bool
}

// Typed returns a Setting that round-trips through the codec.
func Typed(v any) Setting {
	return Setting{Value: v, Convert: true}
}

// Raw returns a Setting stored verbatim as a string.
func Raw(v any) Setting {
	return Setting{Value: v, Convert: false}
}

// Category maps attribute names to settings.
type Category map[string]Setting

// GlobalConfiguration maps category names to their attributes.
type GlobalConfiguration map[string]Category

// Entry is a flattened GlobalConfiguration item.
type Entry struct {
	Category  string
	Attribute string
	Setting
}

// DefaultGlobalConfiguration returns a new copy of the settings every
// deployment starts from.
func DefaultGlobalConfiguration() GlobalConfiguration {
	return GlobalConfiguration{
		"dashboard": {
			"show_not_required_requisitions":      Typed(true),
			"show_not_required_scheduled_entries": Typed(true),
			"allow_additional_requisitions":       Typed(false),
		},
		"appointment": {
			// Digits would otherwise decode as an integer.
			"allowed_iso_weekdays":      Raw("1234567"),
			"use_same_weekday":          Typed(true),
			"default_appt_type":         Typed("default"),
			"appointments_per_day_max":  Typed(int64(30)),
			"appointments_days_forward": Typed(int64(8)),
		},
	}
}

// Merge overlays overrides onto base, attribute by attribute within each
// category. Later overrides win. The inputs are not modified.
func Merge(base GlobalConfiguration, overrides ...GlobalConfiguration) GlobalConfiguration {
	out := make(GlobalConfiguration, len(base))
	for name, cat := range base {
		out[name] = maps.Clone(cat)
	}
	for _, o := range overrides {
		for name, cat := range o {
			dst, ok := out[name]
			if !ok {
				dst = make(Category, len(cat))
				out[name] = dst
			}
			maps.Copy(dst, cat)
		}
	}
	return out
}

// Entries returns every setting ordered by category then attribute.
func (g GlobalConfiguration) Entries() []Entry {
	var out []Entry
	for catName, cat := range g {
		for attr, s := range cat {
			out = append(out, Entry{Category: catName, Attribute: attr, Setting: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}
