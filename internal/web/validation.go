package web

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// uploadForm is the non-file part of an upload. Strategy values are free
// text: unknown names are reported in the summary, not rejected here.
type uploadForm struct {
	FileName            string `json:"file" validate:"required,filename,max=255"`
	NumericStrategy     string `json:"numeric_strategy" validate:"max=64"`
	CategoricalStrategy string `json:"categorical_strategy" validate:"max=64"`
}

type downloadRequest struct {
	FileName string `json:"filename" validate:"required,filename,max=255"`
}

type runRequest struct {
	RunID string `json:"run_id" validate:"required,uuid"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	if err := v.RegisterValidation("filename", isValidFilename); err != nil {
		panic(fmt.Sprintf("register filename validation: %v", err))
	}

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// isValidFilename accepts a single path component: no separators, no NUL
// and not a dot entry.
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
