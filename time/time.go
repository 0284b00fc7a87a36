// SPDX-License-Identifier: ice License 1.0

package time

import (
	"context"
	"strconv"
	stdlibtime "time"

	"github.com/pkg/errors"
)

func Now() *Time {
	now := stdlibtime.Now().UTC()

	return &Time{
		Time: &now,
	}
}

func New(time stdlibtime.Time) *Time {
	return &Time{
		Time: &time,
	}
}

// Unix builds a UTC Time from seconds since the epoch.
func Unix(seconds int64) *Time {
	return New(stdlibtime.Unix(seconds, 0).UTC())
}

// Step returns the number of whole periods elapsed since the Unix epoch.
// Instants before the epoch map to step 0.
func (t *Time) Step(period stdlibtime.Duration) uint64 {
	secs := t.Unix()
	periodSecs := int64(period / stdlibtime.Second)
	if secs <= 0 || periodSecs <= 0 {
		return 0
	}

	return uint64(secs / periodSecs)
}

func (t *Time) MarshalJSON(_ context.Context) ([]byte, error) {
	if t.Time == nil || t.UnixNano() == 0 {
		return []byte("null"), nil
	}
	if t.Location() != stdlibtime.UTC {
		*t.Time = t.Time.UTC()
	}

	//nolint:wrapcheck // We're just proxying it.
	return t.Time.MarshalJSON()
}

func (t *Time) UnmarshalJSON(_ context.Context, bytes []byte) (err error) {
	if err = t.unmarshallInt(bytes); err != nil || t.Time != nil {
		return err
	}

	return t.unmarshallString(bytes)
}

func (t *Time) unmarshallInt(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	for _, b := range data {
		if b < '0' || b > '9' {
			return nil
		}
	}
	millisOrNanos, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid numeric time: %v", string(data))
	}
	t.Time = new(stdlibtime.Time)
	if len(data) == 13 { //nolint:gomnd,mnd // There are 13 digits in a millisecond based timestamp.
		*t.Time = stdlibtime.UnixMilli(millisOrNanos).UTC()
	} else {
		*t.Time = stdlibtime.Unix(0, millisOrNanos).UTC()
	}

	return nil
}

func (t *Time) unmarshallString(bytes []byte) error {
	data := string(bytes)
	if data == "null" || data == `""` || data == "" {
		return nil
	}
	time, err := stdlibtime.Parse(`"`+stdlibtime.RFC3339Nano+`"`, data)
	if err != nil {
		return errors.Wrapf(err, "invalid time format: %v", data)
	}
	t.Time = new(stdlibtime.Time)
	*t.Time = time.UTC()

	return nil
}
