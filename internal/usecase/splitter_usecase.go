package usecase

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var ErrNotArray = errors.New("input is not a JSON array of objects")

// field is one key/value pair, kept in document order.
type field struct {
	key   string
	value json.RawMessage
}

type orderedObject []field

func (o orderedObject) get(key string) (json.RawMessage, bool) {
	for _, f := range o {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// set replaces the value of key in place, or appends it.
func (o orderedObject) set(key string, value json.RawMessage) orderedObject {
	for i := range o {
		if o[i].key == key {
			o[i].value = value
			return o
		}
	}
	return append(o, field{key: key, value: value})
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SplitResult maps each department prefix to the number of rows written.
type SplitResult struct {
	Files   map[string]string
	Rows    map[string]int
	Skipped int
}

// SplitByDepartment groups a JSON array of records by the first two characters of
// codePostal and writes one semicolon-separated CSV per group into outDir.
func SplitByDepartment(inPath, outDir string, logger *zap.Logger) (*SplitResult, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	objects, err := decodeObjects(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", inPath, err)
	}

	groups := map[string][]orderedObject{}
	res := &SplitResult{Files: map[string]string{}, Rows: map[string]int{}}
	for _, obj := range objects {
		dep := departmentPrefix(obj)
		if dep == "" {
			res.Skipped++
			continue
		}
		groups[dep] = append(groups[dep], obj)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(groups))
	for dep := range groups {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	for _, dep := range deps {
		rows := groups[dep]
		path := filepath.Join(outDir, "collectivites_"+dep+".csv")
		if err := os.WriteFile(path, toCSV(rows), 0o644); err != nil {
			return res, err
		}
		res.Files[dep] = path
		res.Rows[dep] = len(rows)
		logger.Info("department written", zap.String("departement", dep), zap.Int("rows", len(rows)), zap.String("file", path))
	}
	return res, nil
}

func departmentPrefix(obj orderedObject) string {
	raw, ok := obj.get("codePostal")
	if !ok {
		return ""
	}
	cp := csvValue(raw)
	if len(cp) < 2 {
		return cp
	}
	return cp[:2]
}

// decodeObjects walks a top-level array, keeping each object's keys in order.
func decodeObjects(r io.Reader) ([]orderedObject, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var out []orderedObject
	for dec.More() {
		obj, err := readObject(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// readObject reads the next JSON object from dec, keeping its keys in order.
func readObject(dec *json.Decoder) (orderedObject, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	obj := orderedObject{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrNotArray
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		obj = append(obj, field{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return ErrNotArray
	}
	return nil
}

// toCSV uses the first row's keys as header. Every cell is quoted.
func toCSV(rows []orderedObject) []byte {
	var buf bytes.Buffer
	headers := make([]string, len(rows[0]))
	for i, f := range rows[0] {
		headers[i] = f.key
	}
	buf.WriteString(strings.Join(headers, ";"))

	for _, row := range rows {
		buf.WriteByte('\n')
		for i, h := range headers {
			if i > 0 {
				buf.WriteByte(';')
			}
			raw, _ := row.get(h)
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(csvValue(raw), `"`, `""`))
			buf.WriteByte('"')
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// csvValue renders a JSON value as cell text: strings unquoted, null empty, others as JSON.
func csvValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
