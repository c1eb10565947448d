package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPath(t *testing.T) {
	cases := map[string]string{
		"/api/v1/public/assessments/abcdefghijkl":        "/api/v1/public/assessments/abcd****",
		"/api/v1/public/assessments/abcdefghijkl/submit": "/api/v1/public/assessments/abcd****/submit",
		"/api/v1/public/assessments/ab":                  "/api/v1/public/assessments/****",
		"/api/v1/evaluations/123":                        "/api/v1/evaluations/123",
	}

	for in, want := range cases {
		assert.Equal(t, want, MaskPath(in), in)
	}
}
