// Package convert translates configuration values between their native Go
// types and the canonical strings stored in the global configuration table.
//
// Supported kinds and their Go types:
//
//	boolean   bool
//	null      nil
//	decimal   decimal.Decimal
//	integer   int64, or uint64 / *big.Int past the int64 range
//	date      civil.Date
//	datetime  time.Time
//	string    string
//
// Decode tries boolean/null, decimal, integer, date and datetime in that
// order and returns the first candidate whose canonical form reproduces the
// input exactly. Anything else comes back as the trimmed string.
package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04"
)

// cutset is stripped from both ends of every encoded and decoded string.
const cutset = ` "`

// Codec converts values to and from their stored string form. The zero value
// is usable and treats datetimes as naive wall-clock times.
type Codec struct {
	// UseTZ normalizes datetimes to Location on encode and localizes parsed
	// datetimes to Location on decode.
	UseTZ    bool
	Location *time.Location
}

// Option configures a Codec.
type Option func(*Codec)

// WithTimeZone makes the codec timezone aware in loc.
func WithTimeZone(loc *time.Location) Option {
	return func(c *Codec) {
		c.UseTZ = true
		c.Location = loc
	}
}

// New returns a Codec. Without options datetimes are naive.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is a naive codec.
var Default = New()

// location is where naive input is interpreted.
func (c *Codec) location() *time.Location {
	if c.UseTZ && c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// Encode returns the canonical string for value and the convert flag to
// persist with it. When convert is false the value is stringified verbatim.
func (c *Codec) Encode(value any, convert bool) (string, bool) {
	if !convert {
		return stringify(value), false
	}
	var s string
	switch v := value.(type) {
	case civil.Date:
		s = v.In(time.UTC).Format(DateLayout)
	case *civil.Date:
		if v == nil {
			s = "None"
		} else {
			s = v.In(time.UTC).Format(DateLayout)
		}
	case time.Time:
		s = c.formatDatetime(v)
	case *time.Time:
		if v == nil {
			s = "None"
		} else {
			s = c.formatDatetime(*v)
		}
	default:
		s = stringify(value)
	}
	return strings.Trim(s, cutset), true
}

// formatDatetime writes t as wall-clock time in the zone Decode reads it back
// in, so naive codecs store UTC.
func (c *Codec) formatDatetime(t time.Time) string {
	return t.In(c.location()).Format(DatetimeLayout)
}

// stringify is the default string form of a value.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case decimal.Decimal:
		return canonicalDecimal(v)
	case *decimal.Decimal:
		if v == nil {
			return "None"
		}
		return canonicalDecimal(*v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Sprint(v)
		}
		return canonicalDecimal(decimal.NewFromFloat32(v))
	case float64:
		return formatFloat(v)
	case civil.Date:
		return v.String()
	case time.Time:
		return v.Format(DatetimeLayout)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// formatFloat renders finite floats as decimals. NaN and infinities have no
// decimal form and fall back to fmt.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return canonicalDecimal(decimal.NewFromFloat(f))
}

// canonicalDecimal renders d in plain notation keeping its significant
// fractional digits, and always with at least one fractional digit so the
// result never reads back as an integer. decimal.Decimal has no negative
// zero, so "-0.0" is not canonical and stays a string on decode.
func canonicalDecimal(d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 1 {
		places = 1
	}
	return d.StringFixed(places)
}

// Decode converts a stored string back to its native value. When convert is
// false the trimmed string is returned unchanged.
func (c *Codec) Decode(s string, convert bool) any {
	s = strings.Trim(s, cutset)
	if !convert {
		return s
	}
	for _, parse := range c.parsers() {
		if v, ok := parse(s); ok {
			return v
		}
	}
	return s
}

// Encode converts value with the Default codec.
func Encode(value any, convert bool) (string, bool) {
	return Default.Encode(value, convert)
}

// Decode converts s with the Default codec.
func Decode(s string, convert bool) any {
	return Default.Decode(s, convert)
}
