package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0123456789abcdef0123456789abcdef_report.pdf", "report.pdf"},
		{"storage_01/0123456789abcdef0123456789abcdef_report.pdf", "report.pdf"},
		{"report.pdf", "report.pdf"},
		{"/data/uploads/report.pdf", "report.pdf"},
		// Underscore not at position 32: left alone.
		{"abc_report.pdf", "abc_report.pdf"},
		// 32 chars before underscore but not hex: left alone.
		{"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz_report.pdf", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz_report.pdf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("doc.pdf"))
	assert.True(t, IsSupportedFile("DOC.PDF"))
	assert.False(t, IsSupportedFile("doc.txt"))
	assert.False(t, IsSupportedFile("doc"))
}
