package repository

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/jwalitptl/clinical-records/internal/store"
)

const dateLayout = "2006-01-02"

// timeToDate renders DATE columns into the YYYY-MM-DD strings the models use.
func timeToDate(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t.Format(dateLayout), nil
	}
	return data, nil
}

// DecodeRow copies a row onto out using the struct's db tags.
func DecodeRow(row store.Row, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeToDate,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]interface{}(row)); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// DecodeRows decodes every row into a fresh T.
func DecodeRows[T any](rows []store.Row) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		v := new(T)
		if err := DecodeRow(r, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Optional turns a nil pointer into a SQL NULL and dereferences the rest.
func Optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
