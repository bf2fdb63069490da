package convert

import (
	"errors"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// parser is one step of the decode chain. ok is false when the step does not
// claim the input.
type parser func(s string) (v any, ok bool)

// parsers returns the decode chain in priority order.
func (c *Codec) parsers() []parser {
	return []parser{
		parseBoolean,
		parseDecimal,
		parseInteger,
		c.parseDate,
		c.parseDatetime,
	}
}

func parseBoolean(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	case "none":
		return nil, true
	}
	return nil, false
}

// plainDecimal bounds what the decimal step will look at. Exponent notation
// never round-trips, and rejecting it early keeps StringFixed cheap.
var plainDecimal = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)

func parseDecimal(s string) (any, bool) {
	if !plainDecimal.MatchString(s) {
		return nil, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || canonicalDecimal(d) != s {
		return nil, false
	}
	return d, true
}

func parseInteger(s string) (any, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return parseBigInteger(s)
	}
	if err != nil || strconv.FormatInt(n, 10) != s {
		return nil, false
	}
	return n, true
}

// parseBigInteger handles integers outside the int64 range: uint64 when it
// fits, *big.Int otherwise.
func parseBigInteger(s string) (any, bool) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.String() != s {
		return nil, false
	}
	if n.IsUint64() {
		return n.Uint64(), true
	}
	return n, true
}

func (c *Codec) parseDate(s string) (any, bool) {
	t, ok := c.parseTime(s, DateLayout)
	if !ok {
		return nil, false
	}
	return civil.DateOf(t), true
}

func (c *Codec) parseDatetime(s string) (any, bool) {
	t, ok := c.parseTime(s, DatetimeLayout)
	if !ok {
		return nil, false
	}
	return t, true
}

// parseTime parses s permissively in the codec location and accepts the
// result only if formatting it with layout gives back s.
func (c *Codec) parseTime(s, layout string) (t time.Time, ok bool) {
	loc := c.location()
	// dateparse can panic on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		// Layouts dateparse does not recognise still get an exact parse.
		if t, err = time.ParseInLocation(layout, s, loc); err != nil {
			return time.Time{}, false
		}
	}
	t = t.In(loc)
	if t.Format(layout) != s {
		return time.Time{}, false
	}
	return t, true
}
