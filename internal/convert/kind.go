package convert

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind names the type of a decoded value.
type Kind string

const (
	KindBoolean  Kind = "boolean"
	KindNull     Kind = "null"
	KindDecimal  Kind = "decimal"
	KindInteger  Kind = "integer"
	KindDate     Kind = "date"
	KindDatetime Kind = "datetime"
	KindString   Kind = "string"
	KindOther    Kind = "other"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// KindOf reports the kind of v. Values Decode never produces report
// KindOther, except Go integer widths which all report KindInteger.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case decimal.Decimal:
		return KindDecimal
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return KindInteger
	case civil.Date:
		return KindDate
	case time.Time:
		return KindDatetime
	case string:
		return KindString
	}
	return KindOther
}
