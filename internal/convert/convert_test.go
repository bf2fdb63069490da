package convert

import (
	"math"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value any
		want  string
	}{
		{"true", true, "True"},
		{"false", false, "False"},
		{"nil", nil, "None"},
		{"int", 30, "30"},
		{"negative int64", int64(-12), "-12"},
		{"uint8", uint8(7), "7"},
		{"decimal", decimal.RequireFromString("12345.0"), "12345.0"},
		{"decimal trailing zeros", decimal.RequireFromString("1.50"), "1.50"},
		{"decimal without fraction", decimal.NewFromInt(5), "5.0"},
		{"decimal large exponent", decimal.New(15, 3), "15000.0"},
		{"float", 0.5, "0.5"},
		{"float whole", 1.0, "1.0"},
		{"float32", float32(0.1), "0.1"},
		{"max uint64", uint64(math.MaxUint64), "18446744073709551615"},
		{"date", civil.Date{Year: 2016, Month: time.January, Day: 5}, "2016-01-05"},
		{"datetime drops seconds", time.Date(2016, 1, 5, 9, 35, 59, 999, time.UTC), "2016-01-05 09:35"},
		{"string", "1234567", "1234567"},
		{"time of day string", "11:00", "11:00"},
		{"quoted string", `  "clinic" `, "clinic"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, convert := Encode(tc.value, true)
			if got != tc.want {
				t.Errorf("Encode(%#v) = %q, want %q", tc.value, got, tc.want)
			}
			if !convert {
				t.Errorf("Encode(%#v) convert = false, want true", tc.value)
			}
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	for _, v := range []any{[]int{1, 2}, struct{ A int }{1}} {
		got, _ := Encode(v, true)
		if got == "" {
			t.Errorf("Encode(%#v) = empty string", v)
		}
	}
}

func TestEncode_NonFiniteFloat(t *testing.T) {
	if got, _ := Encode(math.NaN(), true); got != "NaN" {
		t.Errorf("Encode(NaN) = %q, want NaN", got)
	}
}

func TestEncode_NoConvert(t *testing.T) {
	for _, s := range []string{"2345", " padded ", `"quoted"`, "True"} {
		got, convert := Encode(s, false)
		if got != s {
			t.Errorf("Encode(%q, false) = %q, want unchanged", s, got)
		}
		if convert {
			t.Errorf("Encode(%q, false) convert = true", s)
		}
	}
}

func TestEncode_TimeZone(t *testing.T) {
	gaborone := time.FixedZone("CAT", 2*60*60)
	c := New(WithTimeZone(gaborone))
	got, _ := c.Encode(time.Date(2013, 10, 18, 8, 30, 0, 0, time.UTC), true)
	if got != "2013-10-18 10:30" {
		t.Errorf("got %q, want 2013-10-18 10:30", got)
	}
}

func TestEncode_NaiveStoresUTC(t *testing.T) {
	v := time.Date(2016, 1, 5, 9, 35, 0, 0, time.FixedZone("CAT", 2*60*60))
	for _, c := range []*Codec{New(), New(WithTimeZone(nil))} {
		if got, _ := c.Encode(v, true); got != "2016-01-05 07:35" {
			t.Errorf("UseTZ=%v: got %q, want 2016-01-05 07:35", c.UseTZ, got)
		}
	}
}

func TestDecode_Booleans(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want any
	}{
		{"True", true},
		{"true", true},
		{"TRUE", true},
		{"False", false},
		{"fAlSe", false},
		{"None", nil},
		{"none", nil},
	} {
		got := Decode(tc.in, true)
		if got != tc.want {
			t.Errorf("Decode(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestDecode_NotBooleans(t *testing.T) {
	for _, tc := range []struct {
		in   string
		kind Kind
	}{
		{"yes", KindString},
		{"no", KindString},
		{"1", KindInteger},
		{"0", KindInteger},
		{"Truth", KindString},
	} {
		got := Decode(tc.in, true)
		if k := KindOf(got); k != tc.kind {
			t.Errorf("Decode(%q) kind = %s, want %s", tc.in, k, tc.kind)
		}
	}
}

func TestDecode_Integer(t *testing.T) {
	got := Decode("12345", true)
	n, ok := got.(int64)
	if !ok {
		t.Fatalf("Decode(12345) = %T, want int64", got)
	}
	if n != 12345 {
		t.Errorf("got %d, want 12345", n)
	}

	if got := Decode("-30", true); got != int64(-30) {
		t.Errorf("Decode(-30) = %#v", got)
	}
}

func TestDecode_Decimal(t *testing.T) {
	got := Decode("12345.0", true)
	d, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("Decode(12345.0) = %T, want decimal.Decimal", got)
	}
	if !d.Equal(decimal.NewFromInt(12345)) {
		t.Errorf("got %s, want 12345.0", d)
	}

	for _, s := range []string{"0.5", "-0.25", "1.50", "100.000"} {
		if k := KindOf(Decode(s, true)); k != KindDecimal {
			t.Errorf("Decode(%q) kind = %s, want decimal", s, k)
		}
	}
}

func TestDecode_NonCanonicalNumbers(t *testing.T) {
	for _, s := range []string{"007", "+5", "-0", "1e3", "1E3", "12,345", ".5", "5.", "007.5", "1.5e1", "NaN", "Infinity", "+99999999999999999999", "-00099999999999999999999"} {
		got := Decode(s, true)
		if got != s {
			t.Errorf("Decode(%q) = %#v (%s), want the string unchanged", s, got, KindOf(got))
		}
	}
}

func TestDecode_BigInteger(t *testing.T) {
	if got := Decode("18446744073709551615", true); got != uint64(math.MaxUint64) {
		t.Errorf("Decode(MaxUint64) = %#v (%T), want uint64", got, got)
	}
	got, ok := Decode("-99999999999999999999", true).(*big.Int)
	if !ok {
		t.Fatalf("Decode(-99999999999999999999) = %T, want *big.Int", got)
	}
	if got.String() != "-99999999999999999999" {
		t.Errorf("got %s", got)
	}
	if k := KindOf(got); k != KindInteger {
		t.Errorf("kind = %s, want integer", k)
	}
}

func TestDecode_NegativeZeroDecimal(t *testing.T) {
	// decimal.Decimal cannot carry the sign of zero.
	if got := Decode("-0.0", true); got != "-0.0" {
		t.Errorf("Decode(-0.0) = %#v, want the string unchanged", got)
	}
	if got, _ := Encode(decimal.RequireFromString("-0.0"), true); got != "0.0" {
		t.Errorf("Encode(-0.0) = %q, want 0.0", got)
	}
}

func TestDecode_Date(t *testing.T) {
	got := Decode("2016-01-05", true)
	d, ok := got.(civil.Date)
	if !ok {
		t.Fatalf("Decode(2016-01-05) = %T, want civil.Date", got)
	}
	if want := (civil.Date{Year: 2016, Month: time.January, Day: 5}); d != want {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestDecode_Datetime(t *testing.T) {
	got := Decode("2016-01-05 09:35", true)
	dt, ok := got.(time.Time)
	if !ok {
		t.Fatalf("Decode(2016-01-05 09:35) = %T, want time.Time", got)
	}
	if want := time.Date(2016, 1, 5, 9, 35, 0, 0, time.UTC); !dt.Equal(want) {
		t.Errorf("got %v, want %v", dt, want)
	}
}

func TestDecode_DatetimeLocalized(t *testing.T) {
	gaborone := time.FixedZone("CAT", 2*60*60)
	c := New(WithTimeZone(gaborone))
	got, ok := c.Decode("2013-10-18 10:30", true).(time.Time)
	if !ok {
		t.Fatal("expected time.Time")
	}
	if want := time.Date(2013, 10, 18, 10, 30, 0, 0, gaborone); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got.Location() != gaborone {
		t.Errorf("location = %v, want %v", got.Location(), gaborone)
	}
}

func TestDecode_NonCanonicalDates(t *testing.T) {
	for _, s := range []string{"2016-1-5", "05/01/2016", "2016-01-05 09:35:00", "2016-01-05T09:35", "2016-02-30", "11:00", "Jan 5 2016"} {
		if got := Decode(s, true); got != s {
			t.Errorf("Decode(%q) = %#v (%s), want the string unchanged", s, got, KindOf(got))
		}
	}
}

func TestDecode_Fallback(t *testing.T) {
	for _, s := range []string{"11:00", "clinic", "default", "", "Zebra_Technologies_ZTC_GK420t", "1234567abc"} {
		got, ok := Decode(s, true).(string)
		if !ok || got != s {
			t.Errorf("Decode(%q) = %#v, want the string unchanged", s, got)
		}
	}
}

func TestDecode_Trims(t *testing.T) {
	if got := Decode(` "30" `, true); got != int64(30) {
		t.Errorf("Decode quoted 30 = %#v, want int64(30)", got)
	}
	if got := Decode(`"clinic"`, true); got != "clinic" {
		t.Errorf("Decode quoted clinic = %#v", got)
	}
}

func TestDecode_NoConvert(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"2345", "2345"},
		{"True", "True"},
		{"2016-01-05", "2016-01-05"},
		{` "quoted" `, "quoted"},
	} {
		got := Decode(tc.in, false)
		if got != tc.want {
			t.Errorf("Decode(%q, false) = %#v, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	gaborone := time.FixedZone("CAT", 2*60*60)
	for _, c := range []*Codec{New(), New(WithTimeZone(nil)), New(WithTimeZone(gaborone))} {
		for _, v := range []any{
			true,
			false,
			nil,
			int64(0),
			int64(30),
			int64(-8),
			decimal.RequireFromString("12345.0"),
			decimal.RequireFromString("0.001"),
			decimal.NewFromInt(7),
			civil.Date{Year: 2016, Month: time.October, Day: 17},
			time.Date(2016, 10, 17, 16, 30, 0, 0, time.UTC),
			time.Date(2016, 1, 5, 9, 35, 0, 0, gaborone),
			time.Date(2016, 1, 5, 23, 10, 0, 0, time.FixedZone("EST", -5*60*60)),
			uint64(math.MaxUint64),
			new(big.Int).Lsh(big.NewInt(1), 100),
			"1234567x",
			"clinic",
			"11:00",
		} {
			s, convert := c.Encode(v, true)
			got := c.Decode(s, convert)
			if !equal(got, v) {
				t.Errorf("UseTZ=%v Location=%v: Decode(Encode(%#v)) = %#v (via %q)", c.UseTZ, c.Location, v, got, s)
			}
		}
	}
}

func TestRoundTrip_DatetimePrecision(t *testing.T) {
	v := time.Date(2016, 1, 5, 9, 35, 42, 123456789, time.UTC)
	s, _ := Encode(v, true)
	got := Decode(s, true)
	if !equal(got, v.Truncate(time.Minute)) {
		t.Errorf("got %#v, want %v", got, v.Truncate(time.Minute))
	}
}

func TestIdempotence(t *testing.T) {
	c := New(WithTimeZone(time.FixedZone("CAT", 2*60*60)))
	for _, s := range []string{
		"True", "none", "12345", "12345.0", "007", "1e3", "2016-01-05", "2016-01-05 09:35",
		"11:00", `"quoted"`, "", "-0.0", "clinic", "1234567",
	} {
		first := c.Decode(s, true)
		enc, convert := c.Encode(first, true)
		second := c.Decode(enc, convert)
		if !equal(first, second) {
			t.Errorf("%q: decode=%#v, re-decode=%#v (via %q)", s, first, second, enc)
		}
	}
}

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		v    any
		want Kind
	}{
		{true, KindBoolean},
		{nil, KindNull},
		{decimal.Zero, KindDecimal},
		{int64(1), KindInteger},
		{3, KindInteger},
		{civil.Date{}, KindDate},
		{time.Time{}, KindDatetime},
		{"x", KindString},
		{uint64(1), KindInteger},
		{big.NewInt(1), KindInteger},
		{1.5, KindOther},
	} {
		if got := KindOf(tc.v); got != tc.want {
			t.Errorf("KindOf(%#v) = %s, want %s", tc.v, got, tc.want)
		}
	}
}

// equal compares decoded values, using the semantic equality of decimals and
// instants.
func equal(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	}
	return a == b
}
