package wire

import (
	"bytes"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInt(i int64) string {
	var buf bytes.Buffer
	WriteInt(&buf, i)
	return buf.String()
}

func writeUint(u uint64) string {
	var buf bytes.Buffer
	WriteUint(&buf, u)
	return buf.String()
}

func TestWriteInt(t *testing.T) {
	assert.Equal(t, "0", writeInt(0))
	assert.Equal(t, "1", writeInt(1))
	assert.Equal(t, "9", writeInt(9))
	assert.Equal(t, "123456789", writeInt(123456789))
	assert.Equal(t, "-1", writeInt(-1))
	assert.Equal(t, "-123456789", writeInt(-123456789))
	assert.Equal(t, strconv.Itoa(math.MinInt32), writeInt(math.MinInt32))
	assert.Equal(t, strconv.Itoa(math.MaxInt32), writeInt(math.MaxInt32))
	assert.Equal(t, "4294967295", writeUint(math.MaxUint32))
	assert.Equal(t, "-9223372036854775808", writeInt(math.MinInt64))
	assert.Equal(t, "9223372036854775807", writeInt(math.MaxInt64))
	assert.Equal(t, "18446744073709551615", writeUint(math.MaxUint64))
	assert.Equal(t, "-1234567890987654321", writeInt(-1234567890987654321))
}

func TestWriteInteger(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{"single digit", 7, "7"},
		{"zero", 0, "0"},
		{"ten", 10, "i10;"},
		{"negative", -1, "i-1;"},
		{"int32 max", math.MaxInt32, "i2147483647;"},
		{"beyond int32", math.MaxInt32 + 1, "l2147483648;"},
		{"large negative", -1234567890987654321, "l-1234567890987654321;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			WriteInteger(&buf, tt.value)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteUnsigned(t *testing.T) {
	var buf bytes.Buffer
	WriteUnsigned(&buf, math.MaxUint64)
	assert.Equal(t, "l18446744073709551615;", buf.String())

	buf.Reset()
	WriteUnsigned(&buf, 5)
	assert.Equal(t, "5", buf.String())
}

func TestWriteDouble(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"fraction", 3.25, "d3.25;"},
		{"integral", 2, "d2;"},
		{"exponent", 1e21, "d1e+21;"},
		{"nan", math.NaN(), "N"},
		{"positive infinity", math.Inf(1), "I+"},
		{"negative infinity", math.Inf(-1), "I-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			WriteDouble(&buf, tt.value, 64)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestUTF16Length(t *testing.T) {
	assert.Equal(t, 0, UTF16Length(""))
	assert.Equal(t, 5, UTF16Length("hello"))
	assert.Equal(t, 2, UTF16Length("你好"))
	assert.Equal(t, 2, UTF16Length("😀"))
}

func TestIsSingleChar(t *testing.T) {
	assert.True(t, IsSingleChar("a"))
	assert.True(t, IsSingleChar("你"))
	assert.False(t, IsSingleChar(""))
	assert.False(t, IsSingleChar("ab"))
	assert.False(t, IsSingleChar("😀"))
}

func TestWritePayloads(t *testing.T) {
	var buf bytes.Buffer
	WriteStringPayload(&buf, "hello", 5)
	assert.Equal(t, `5"hello"`, buf.String())

	buf.Reset()
	WriteBytesPayload(&buf, nil)
	assert.Equal(t, `""`, buf.String())

	buf.Reset()
	WriteBytesPayload(&buf, []byte{'a', 0, 'b'})
	assert.Equal(t, "3\"a\x00b\"", buf.String())

	buf.Reset()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	WriteGUID(&buf, id)
	assert.Equal(t, "g{6ba7b810-9dad-11d1-80b4-00c04fd430c8}", buf.String())
}

func TestWriteDateTime(t *testing.T) {
	tests := []struct {
		name  string
		value time.Time
		want  string
	}{
		{"date only", time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC), "D20180401Z"},
		{"date and time", time.Date(2018, 4, 1, 12, 30, 5, 0, time.UTC), "D20180401T123005Z"},
		{"milliseconds", time.Date(2018, 4, 1, 12, 30, 5, 123000000, time.UTC), "D20180401T123005.123Z"},
		{"microseconds", time.Date(2018, 4, 1, 12, 30, 5, 123456000, time.UTC), "D20180401T123005.123456Z"},
		{"nanoseconds", time.Date(2018, 4, 1, 12, 30, 5, 123456789, time.UTC), "D20180401T123005.123456789Z"},
		{"time only", time.Date(1970, 1, 1, 8, 0, 1, 0, time.UTC), "T080001Z"},
		{"local", time.Date(2020, 2, 29, 0, 0, 0, 0, time.Local), "D20200229;"},
		{"other zone", time.Date(2020, 1, 1, 9, 0, 0, 0, time.FixedZone("X", 3600)), "D20200101T080000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteDateTime(&buf, tt.value))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	err := WriteDateTime(&buf, time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrDateOutOfRange)
}
