package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// pathInt returns the integer URL parameter
func pathInt(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return v, nil
}

// formString returns the raw value, empty for absent fields
func formString(r *http.Request, name string) string {
	return r.PostFormValue(name)
}

// formText returns NULL for an empty value
func formText(r *http.Request, name string) pgtype.Text {
	v := r.PostFormValue(name)
	return pgtype.Text{String: v, Valid: v != ""}
}

// formBool is true for a present non empty checkbox
func formBool(r *http.Request, name string) bool {
	return r.PostFormValue(name) != ""
}

func formInt(r *http.Request, name string, bitSize int) (int64, bool, error) {
	v := strings.TrimSpace(r.PostFormValue(name))
	if v == "" {
		return 0, false, nil
	}
	i, err := strconv.ParseInt(v, 10, bitSize)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, name, v)
	}
	return i, true, nil
}

// formInt8 returns NULL for an empty value and ErrBadRequest for a non number
func formInt8(r *http.Request, name string) (pgtype.Int8, error) {
	i, ok, err := formInt(r, name, 64)
	return pgtype.Int8{Int64: i, Valid: ok}, err
}

func formInt4(r *http.Request, name string) (pgtype.Int4, error) {
	i, ok, err := formInt(r, name, 32)
	return pgtype.Int4{Int32: int32(i), Valid: ok}, err
}

// formRequiredInt8 rejects empty values
func formRequiredInt8(r *http.Request, name string) (int64, error) {
	i, ok, err := formInt(r, name, 64)
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s is required", ErrBadRequest, name)
	}
	return i, err
}

// formInt32List parses "1, 2 3" or the array literal "{1,2,3}", empty means NULL
func formInt32List(r *http.Request, name string) ([]int32, error) {
	v := strings.Trim(strings.TrimSpace(r.PostFormValue(name)), "{}")
	fields := strings.FieldsFunc(v, func(c rune) bool { return c == ',' || c == ' ' })
	if len(fields) == 0 {
		return nil, nil
	}
	list := make([]int32, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a list of integers, got %q", ErrBadRequest, name, f)
		}
		list = append(list, int32(i))
	}
	return list, nil
}
