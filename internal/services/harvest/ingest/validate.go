package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/validate"
	"almgetl/internal/services/harvest/domain"
)

// propositionFields are the decoded scalars of a RawProposition that passed validation
type propositionFields struct {
	Author      string
	Date        string
	Ementa      string
	Assunto     string
	Regime      string
	Situation   string
	Type        string
	Number      string
	Year        *int
	Processings []json.RawMessage
}

// processingFields are the decoded scalars of a RawProcessing that passed validation
type processingFields struct {
	Date        string
	Description string
	Local       string
}

// ValidateProposition reports whether raw has the shape of a proposition.
// The returned error is a perr validation error naming the offending field
func ValidateProposition(raw domain.RawProposition) error {
	_, err := checkProposition(raw)
	return err
}

// ValidateProcessing reports whether raw has the shape of a processing entry
func ValidateProcessing(raw domain.RawProcessing) error {
	_, err := checkProcessing(raw)
	return err
}

func checkProposition(raw domain.RawProposition) (propositionFields, error) {
	var (
		f   propositionFields
		err error
	)
	texts := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"autor", raw.Autor, &f.Author},
		{"dataPublicacao", raw.DataPublicacao, &f.Date},
		{"ementa", raw.Ementa, &f.Ementa},
		{"assunto", raw.Assunto, &f.Assunto},
		{"regime", raw.Regime, &f.Regime},
		{"situacao", raw.Situacao, &f.Situation},
		{"tipoProjeto", raw.TipoProjeto, &f.Type},
		{"numero", raw.Numero, &f.Number},
	}
	for _, t := range texts {
		if t.name == "dataPublicacao" {
			*t.dst, err = dateText(t.name, t.raw)
		} else {
			*t.dst, err = text(t.name, t.raw)
		}
		if err != nil {
			return propositionFields{}, err
		}
	}

	if f.Year, err = year("ano", raw.Ano); err != nil {
		return propositionFields{}, err
	}
	if f.Processings, err = list("listaHistoricoTramitacoes", raw.Tramitacoes); err != nil {
		return propositionFields{}, err
	}
	return f, nil
}

func checkProcessing(raw domain.RawProcessing) (processingFields, error) {
	var (
		f   processingFields
		err error
	)
	if f.Date, err = dateText("data", raw.Data); err != nil {
		return processingFields{}, err
	}
	if f.Description, err = text("historico", raw.Historico); err != nil {
		return processingFields{}, err
	}
	if f.Local, err = text("local", raw.Local); err != nil {
		return processingFields{}, err
	}
	return f, nil
}

// decodeProcessing decodes one element of listaHistoricoTramitacoes
func decodeProcessing(b json.RawMessage) (processingFields, error) {
	v := bytes.TrimSpace(b)
	if len(v) == 0 || v[0] != '{' {
		return processingFields{}, perr.Validationf("listaHistoricoTramitacoes", "processing entry must be an object, got %s", kindOf(v))
	}
	var raw domain.RawProcessing
	if err := json.Unmarshal(v, &raw); err != nil {
		return processingFields{}, perr.Validationf("listaHistoricoTramitacoes", "processing entry: %v", err)
	}
	return checkProcessing(raw)
}

// text accepts a JSON string, null or absent ("") and numbers, which are kept in their literal form
func text(field string, b json.RawMessage) (string, error) {
	v := bytes.TrimSpace(b)
	if isNull(v) {
		return "", nil
	}
	switch {
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", perr.Validationf(field, "%s is not a valid string", field)
		}
		return s, nil
	case isNumber(v):
		return string(v), nil
	default:
		return "", perr.Validationf(field, "%s must be a string, got %s", field, kindOf(v))
	}
}

// dateText accepts a JSON string or null; a string that is not a date is
// not a validation failure and resolves to the sentinel later
func dateText(field string, b json.RawMessage) (string, error) {
	v := bytes.TrimSpace(b)
	if isNull(v) {
		return "", nil
	}
	if v[0] != '"' {
		return "", perr.Validationf(field, "%s must be a date string, got %s", field, kindOf(v))
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", perr.Validationf(field, "%s is not a valid string", field)
	}
	return s, nil
}

// year accepts an integer, an integral number such as 2023.0, a numeric
// string or null. Values outside the Postgres integer column are rejected
func year(field string, b json.RawMessage) (*int, error) {
	v := bytes.TrimSpace(b)
	if isNull(v) {
		return nil, nil
	}

	var s string
	switch {
	case v[0] == '"':
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, perr.Validationf(field, "%s is not a valid string", field)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
	case isNumber(v):
		s = string(v)
	default:
		return nil, perr.Validationf(field, "%s must be an integer, got %s", field, kindOf(v))
	}

	if err := validate.Var(field, s, "numeric"); err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, perr.Validationf(field, "%s must be an integer, got %q", field, s)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil, perr.Validationf(field, "%s is out of range, got %q", field, s)
	}
	n := int(f)
	return &n, nil
}

// list accepts a JSON array or null
func list(field string, b json.RawMessage) ([]json.RawMessage, error) {
	v := bytes.TrimSpace(b)
	if isNull(v) {
		return nil, nil
	}
	if v[0] != '[' {
		return nil, perr.Validationf(field, "%s must be a list, got %s", field, kindOf(v))
	}
	var out []json.RawMessage
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, perr.Validationf(field, "%s is not a valid list", field)
	}
	return out, nil
}

func isNull(v []byte) bool { return len(v) == 0 || string(v) == "null" }

func isNumber(v []byte) bool { return len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9')) }

func kindOf(v []byte) string {
	if len(v) == 0 {
		return "nothing"
	}
	switch v[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "list"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	if isNumber(v) {
		return "number"
	}
	return "invalid JSON"
}
