package database

import (
	"fmt"
	"math"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	tDecimal    = reflect.TypeOf(decimal.Decimal{})
	tDecimalPtr = reflect.TypeOf(&decimal.Decimal{})
)

// NewRegistry returns the default bson registry extended so that money
// fields are stored as Decimal128.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tDecimal, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(tDecimal, bsoncodec.ValueDecoderFunc(decodeDecimal))
	reg.RegisterTypeEncoder(tDecimalPtr, bsoncodec.ValueEncoderFunc(encodeDecimalPtr))
	reg.RegisterTypeDecoder(tDecimalPtr, bsoncodec.ValueDecoderFunc(decodeDecimalPtr))
	return reg
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	d128, ok := primitive.ParseDecimal128FromBigInt(d.Coefficient(), int(d.Exponent()))
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s out of Decimal128 range", d.String())
	}
	return d128, nil
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tDecimal {
		return bsoncodec.ValueEncoderError{Name: "encodeDecimal", Types: []reflect.Type{tDecimal}, Received: val}
	}
	d128, err := toDecimal128(val.Interface().(decimal.Decimal))
	if err != nil {
		return err
	}
	return vw.WriteDecimal128(d128)
}

func encodeDecimalPtr(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tDecimalPtr {
		return bsoncodec.ValueEncoderError{Name: "encodeDecimalPtr", Types: []reflect.Type{tDecimalPtr}, Received: val}
	}
	if val.IsNil() {
		return vw.WriteNull()
	}
	d128, err := toDecimal128(*val.Interface().(*decimal.Decimal))
	if err != nil {
		return err
	}
	return vw.WriteDecimal128(d128)
}

// readDecimal reads any numeric or string bson value. ok is false for null,
// non-finite and unparseable values.
func readDecimal(vr bsonrw.ValueReader) (d decimal.Decimal, ok bool, err error) {
	switch vr.Type() {
	case bsontype.Decimal128:
		d128, err := vr.ReadDecimal128()
		if err != nil {
			return d, false, err
		}
		bi, exp, err := d128.BigInt()
		if err != nil {
			return d, false, nil
		}
		return decimal.NewFromBigInt(bi, int32(exp)), true, nil
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return d, false, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return d, false, nil
		}
		return decimal.NewFromFloat(f), true, nil
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		if err != nil {
			return d, false, err
		}
		return decimal.NewFromInt32(i), true, nil
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		if err != nil {
			return d, false, err
		}
		return decimal.NewFromInt(i), true, nil
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return d, false, err
		}
		parsed, perr := decimal.NewFromString(s)
		if perr != nil {
			return d, false, nil
		}
		return parsed, true, nil
	case bsontype.Null:
		return d, false, vr.ReadNull()
	case bsontype.Undefined:
		return d, false, vr.ReadUndefined()
	default:
		return d, false, fmt.Errorf("cannot decode %v into decimal.Decimal", vr.Type())
	}
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tDecimal {
		return bsoncodec.ValueDecoderError{Name: "decodeDecimal", Types: []reflect.Type{tDecimal}, Received: val}
	}
	d, ok, err := readDecimal(vr)
	if err != nil {
		return err
	}
	if !ok {
		d = decimal.Zero
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

// decodeDecimalPtr leaves optional money fields nil when the stored value is
// missing or malformed.
func decodeDecimalPtr(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tDecimalPtr {
		return bsoncodec.ValueDecoderError{Name: "decodeDecimalPtr", Types: []reflect.Type{tDecimalPtr}, Received: val}
	}
	d, ok, err := readDecimal(vr)
	if err != nil {
		return err
	}
	if !ok {
		val.Set(reflect.Zero(tDecimalPtr))
		return nil
	}
	val.Set(reflect.ValueOf(&d))
	return nil
}
