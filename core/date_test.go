package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_AddDays(t *testing.T) {
	d := NewDate(2024, time.February, 26)
	assert.Equal(t, "2024-03-02", d.AddDays(5).String())
	assert.Equal(t, "2024-02-26", d.AddDays(0).String())
	assert.True(t, d.Before(d.AddDays(1)))
}

func TestDateOf_usesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	// 01:30 UTC on the 10th is still the 9th in BRT
	instant := time.Date(2024, time.May, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-09", DateOf(instant.In(loc)).String())
	assert.Equal(t, "2024-05-10", DateOf(instant).String())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Due Date `json:"due"`
	}

	data, err := json.Marshal(payload{Due: NewDate(2024, time.January, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-01-05"}`, string(data))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-12-31"}`), &p))
	assert.Equal(t, NewDate(2024, time.December, 31), p.Due)

	assert.Error(t, json.Unmarshal([]byte(`{"due":"31/12/2024"}`), &p))
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    string
		wantErr bool
	}{
		{name: "string", src: "2024-03-01", want: "2024-03-01"},
		{name: "bytes", src: []byte("2024-03-01"), want: "2024-03-01"},
		{name: "timestamp text", src: "2024-03-01T00:00:00Z", want: "2024-03-01"},
		{name: "time", src: time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC), want: "2024-03-01"},
		{name: "nil", src: nil, want: ""},
		{name: "garbage", src: "lol", wantErr: true},
		{name: "unsupported", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(2024, time.July, 9).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-09", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "11988887777", DigitsOnly("(11) 98888-7777"))
	assert.Equal(t, "", DigitsOnly("n/a"))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "50.00", FormatMoney(decimal.NewFromInt(50)))
	assert.Equal(t, "1234.50", FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.33", FormatMoney(decimal.RequireFromString("0.333")))
}
