package tape

import (
	"strconv"

	"github.com/pkg/errors"
)

// U64String is a uint64 that always serializes as a decimal string, because
// JSON numbers above 2^53 lose precision in most consumers (JavaScript's
// Number chief among them). It accepts either a JSON number or a JSON string
// on decode, matching instrumentation-parent's U64AsString.
type U64String uint64

// MarshalJSON always emits a quoted decimal string.
func (u U64String) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(u), 10))), nil
}

// UnmarshalJSON accepts either a bare JSON number or a quoted decimal
// string.
func (u *U64String) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return errors.Wrap(err, "unquoting U64String")
		}
		s = unquoted
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parsing U64String %q", s)
	}
	*u = U64String(v)
	return nil
}

// I64String is the signed counterpart to U64String, additionally rendering
// in hex for log output the way instrumentation-parent's I64AsString
// implements LowerHex.
type I64String int64

// MarshalJSON always emits a quoted decimal string.
func (i I64String) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(i), 10))), nil
}

// UnmarshalJSON accepts either a bare JSON number or a quoted decimal
// string.
func (i *I64String) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return errors.Wrap(err, "unquoting I64String")
		}
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parsing I64String %q", s)
	}
	*i = I64String(v)
	return nil
}

// Hex formats the value the way %x would, for diagnostics.
func (i I64String) Hex() string {
	if i < 0 {
		return "-" + strconv.FormatUint(uint64(-i), 16)
	}
	return strconv.FormatUint(uint64(i), 16)
}
