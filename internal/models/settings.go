package models

// Setting keys in the settings store
const (
	SettingAPIKey         = "headless_comments_api_key"
	SettingAllowedOrigins = "headless_comments_allowed_origins"
	SettingSpamCheck      = "headless_comments_use_akismet"
)

// Defaults written on first start
const (
	DefaultAllowedOrigins = "http://localhost:4321\nhttp://localhost"
	DefaultSpamCheck      = "1"
	APIKeyLength          = 32
)

// WildcardOrigin allows any requesting origin
const WildcardOrigin = "*"

// Settings is the per-request snapshot of the runtime settings
type Settings struct {
	APIKey         string
	AllowedOrigins []string
	SpamCheck      bool
}

// SpamVerdict is the raw answer of the spam classifier
type SpamVerdict string

const (
	VerdictHam  SpamVerdict = "ham"
	VerdictSpam SpamVerdict = "spam"
)

// SpamCheckRequest holds the fields sent to the spam classifier
type SpamCheckRequest struct {
	Blog        string
	UserIP      string
	UserAgent   string
	Referrer    string
	Permalink   string
	CommentType string
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	Content     string
	BlogLang    string
	BlogCharset string
	ParentID    int64
}

// SpamOutcome records which classifier path a submission took
type SpamOutcome string

const (
	// SpamSkipped means checking was turned off or no classifier is configured
	SpamSkipped     SpamOutcome = "skipped"
	SpamHam         SpamOutcome = "ham"
	SpamSpam        SpamOutcome = "spam"
	SpamUnavailable SpamOutcome = "unavailable"
)
