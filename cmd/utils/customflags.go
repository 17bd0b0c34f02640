package utils

import (
	"encoding"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// Flag is a named command line option whose Value also sets its type and
// default.
type Flag struct {
	Name         string
	Abbreviation string
	Value        interface{}
	Usage        string
}

func (f *Flag) GetName() string         { return f.Name }
func (f *Flag) GetAbbreviation() string { return f.Abbreviation }
func (f *Flag) GetUsage() string        { return f.Usage }
func (f *Flag) GetValue() interface{}   { return f.Value }

// ****************************************
// **                                    **
// **       BIG INT FLAG                 **
// **       & CUSTOM VALUE               **
// **                                    **
// ****************************************

// BigIntValue is a pflag.Value accepting decimal or 0x prefixed integers.
type BigIntValue big.Int

func newBigIntValue(val *big.Int) *BigIntValue {
	if val == nil {
		return nil
	}
	return (*BigIntValue)(val)
}

func (b *BigIntValue) Set(val string) error {
	bigIntVal, ok := math.ParseBig256(val)
	if !ok {
		return fmt.Errorf("failed to parse *big.Int value: %s", val)
	}
	*b = BigIntValue(*bigIntVal)
	return nil
}

func (b *BigIntValue) Type() string {
	return "big.Int"
}

func (b *BigIntValue) String() string {
	return (*big.Int)(b).String()
}

// ****************************************
// **                                    **
// **       TEXT MARSHALER FLAG          **
// **       & CUSTOM VALUE               **
// **                                    **
// ****************************************

// TextMarshaler is satisfied by pointers to hashes and addresses.
type TextMarshaler interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

type TextMarshalerValue struct {
	Value TextMarshaler
}

func NewTextMarshalerValue(val TextMarshaler) *TextMarshalerValue {
	return &TextMarshalerValue{Value: val}
}

func (t *TextMarshalerValue) Set(val string) error {
	return t.Value.UnmarshalText([]byte(val))
}

func (t *TextMarshalerValue) Type() string {
	return "textMarshaler"
}

func (t *TextMarshalerValue) String() string {
	text, err := t.Value.MarshalText()
	if err != nil {
		return ""
	}
	return string(text)
}
