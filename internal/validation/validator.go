package validation

import (
	"html"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-']+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	spaceRegex = regexp.MustCompile(`[ \t]+`)

	// strictPolicy removes every element, leaving text only
	strictPolicy = bluemonday.StrictPolicy()
)

// Error codes for field validation failures
const (
	CodeRequired     = "required"
	CodeInvalidEmail = "invalid_email"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CommentFields are the sanitized user-supplied fields of a comment
type CommentFields struct {
	AuthorName  string
	AuthorEmail string
	Content     string
}

// SanitizeCommentFields applies the per-field sanitizer to raw input
func SanitizeCommentFields(name, email, content string) CommentFields {
	return CommentFields{
		AuthorName:  SanitizeText(name),
		AuthorEmail: SanitizeEmail(email),
		Content:     SanitizeTextarea(content),
	}
}

// ValidateComment validates sanitized comment fields. Required-field errors are
// listed before format errors.
func ValidateComment(f CommentFields) []ValidationError {
	var errors []ValidationError

	if f.AuthorName == "" {
		errors = append(errors, ValidationError{Field: "author_name", Code: CodeRequired, Message: "author_name is required"})
	}
	if f.AuthorEmail == "" {
		errors = append(errors, ValidationError{Field: "author_email", Code: CodeRequired, Message: "author_email is required"})
	}
	if f.Content == "" {
		errors = append(errors, ValidationError{Field: "content", Code: CodeRequired, Message: "content is required"})
	}
	if len(errors) > 0 {
		return errors
	}

	if !IsEmail(f.AuthorEmail) {
		errors = append(errors, ValidationError{Field: "author_email", Code: CodeInvalidEmail, Message: "invalid email format"})
	}

	return errors
}

// HasCode reports whether any error carries the given code
func HasCode(errs []ValidationError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// IsEmail reports whether s is a syntactically valid email address
func IsEmail(s string) bool {
	if len(s) < 6 || len(s) > 254 {
		return false
	}
	return emailRegex.MatchString(s)
}

// SanitizeText cleans a single-line plain-text field: markup, control characters and
// line breaks are removed and whitespace collapsed.
func SanitizeText(s string) string {
	s = stripMarkup(s)
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// SanitizeTextarea cleans a multi-line plain-text field, keeping line breaks
func SanitizeTextarea(s string) string {
	s = stripMarkup(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRegex.ReplaceAllString(line, " "), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SanitizeEmail trims an address and drops characters that cannot appear in it
func SanitizeEmail(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if strings.ContainsRune("!#$%&'*+/=?^_`{|}~.@-", r) {
			return r
		}
		return -1
	}, s)
}

// AbsInt parses the leading integer of s and returns its absolute value.
// Non-numeric input yields 0; out-of-range input saturates.
func AbsInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}

	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return math.MaxInt64
		}
		n = n*10 + d
	}
	return n
}

func stripMarkup(s string) string {
	if s == "" || !utf8.ValidString(s) {
		return ""
	}
	// The strict policy escapes text; plain-text storage wants it raw
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
