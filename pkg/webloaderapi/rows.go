package webloaderapi

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// ScalarKey names the single column of rows decoded from arrays of scalars.
const ScalarKey = "value"

// Field is a single cell of a result row.
type Field struct {
	Key string

	// Text is the display form: strings are unquoted, other values keep their JSON notation.
	Text string
	Null bool

	// Raw is the JSON encoding of the value.
	Raw []byte
}

// Row is a result row that keeps the column order of the backend JSON object.
type Row []Field

func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, f := range r {
		keys = append(keys, f.Key)
	}

	return keys
}

func (r Row) Get(key string) (Field, bool) {
	for _, f := range r {
		if f.Key == key {
			return f, true
		}
	}

	return Field{}, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		if len(f.Raw) == 0 {
			buf.WriteString("null")
			continue
		}

		buf.Write(f.Raw)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// decodeQueryResult accepts the {success, data, error} envelope, a bare array of rows
// or a single object, which is treated as a one-row result.
func decodeQueryResult(v *fastjson.Value) (*QueryResult, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return &QueryResult{Success: true}, nil

	case fastjson.TypeArray:
		rows, err := decodeRows(v)
		if err != nil {
			return nil, err
		}

		return &QueryResult{Success: true, Data: rows}, nil

	case fastjson.TypeObject:

	default:
		return nil, errors.Errorf("unexpected result type %s", v.Type())
	}

	if !isEnvelope(v) {
		row, err := decodeRow(v)
		if err != nil {
			return nil, err
		}

		return &QueryResult{Success: true, Data: []Row{row}}, nil
	}

	result := &QueryResult{Success: true}

	if msg := errorText(v.Get("error")); msg != "" {
		result.Success = false
		result.Error = msg

		return result, nil
	}

	if s := v.Get("success"); s != nil && s.Type() != fastjson.TypeNull {
		result.Success = s.Type() == fastjson.TypeTrue
	}

	data := v.Get("data")
	if data == nil || data.Type() == fastjson.TypeNull {
		return result, nil
	}

	if data.Type() != fastjson.TypeArray {
		row, err := decodeRow(data)
		if err != nil {
			return nil, err
		}

		result.Data = []Row{row}

		return result, nil
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}

	result.Data = rows

	return result, nil
}

func isEnvelope(v *fastjson.Value) bool {
	return v.Exists("success") || v.Exists("data") || v.Exists("error")
}

func decodeRows(v *fastjson.Value) ([]Row, error) {
	items, err := v.Array()
	if err != nil {
		return nil, errors.Wrap(err, "rows must be an array")
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row, err := decodeRow(item)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func decodeRow(v *fastjson.Value) (Row, error) {
	if v.Type() != fastjson.TypeObject {
		return Row{newField(ScalarKey, v)}, nil
	}

	obj, err := v.Object()
	if err != nil {
		return nil, errors.Wrap(err, "invalid row")
	}

	row := make(Row, 0, obj.Len())
	obj.Visit(func(key []byte, value *fastjson.Value) {
		row = append(row, newField(string(key), value))
	})

	return row, nil
}

// newField copies everything it needs out of v, the parser may reuse v afterwards.
func newField(key string, v *fastjson.Value) Field {
	f := Field{
		Key: key,
		Raw: v.MarshalTo(nil),
	}

	switch v.Type() {
	case fastjson.TypeString:
		f.Text = string(v.GetStringBytes())
	case fastjson.TypeNull:
		f.Null = true
	default:
		f.Text = string(f.Raw)
	}

	return f
}

func errorText(v *fastjson.Value) string {
	if v == nil {
		return ""
	}

	switch v.Type() {
	case fastjson.TypeNull, fastjson.TypeFalse:
		return ""
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeObject:
		if msg := v.GetStringBytes("message"); len(msg) > 0 {
			return string(msg)
		}
	}

	return string(v.MarshalTo(nil))
}
