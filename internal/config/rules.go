package config

// Default request header values used when neither the ruleset file nor the
// command line sets them.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.5"
	DefaultAcceptEncoding = "gzip, deflate, br"
)

// Default depth values. They are carried in the ruleset for recursive drivers
// built on top of the pipeline; a single run does not consume them.
const (
	DefaultURLDepth = 1
	DefaultJSDepth  = 3
)

// Headers are the default request headers from the ruleset file.
type Headers struct {
	// UserAgent is the User-Agent header. --user-agent overrides it.
	UserAgent string `yaml:"user_agent"`

	// Cookie is the Cookie header. --cookie overrides it.
	Cookie string `yaml:"cookie,omitempty"`

	// Accept is the Accept header.
	Accept string `yaml:"accept"`

	// AcceptLanguage is the Accept-Language header.
	AcceptLanguage string `yaml:"accept_language"`

	// AcceptEncoding is the Accept-Encoding header.
	// Only gzip, deflate and br are decoded; other encodings are passed through.
	AcceptEncoding string `yaml:"accept_encoding"`
}

// RulesFile is the YAML ruleset document.
//
// Every list is applied in declared order and every pattern in a list runs;
// there is no first-match-wins. A key that is absent from the file keeps its
// built-in default, while a key set to an empty list disables that group.
type RulesFile struct {
	// Headers are the default request headers.
	Headers Headers `yaml:"headers"`

	// URLPatterns extract page URLs from bodies.
	URLPatterns []string `yaml:"url_patterns"`

	// JSPatterns extract JavaScript asset URLs from bodies.
	JSPatterns []string `yaml:"js_patterns"`

	// SensitivePatterns extract credentials, tokens and API paths from bodies.
	SensitivePatterns []string `yaml:"sensitive_patterns"`

	// URLFilters drop extracted page URLs before normalization.
	URLFilters []string `yaml:"url_filters"`

	// JSFilters drop extracted JavaScript URLs before normalization.
	JSFilters []string `yaml:"js_filters"`

	// URLDepth is the recursion depth for page URLs.
	URLDepth int `yaml:"url_depth"`

	// JSDepth is the recursion depth for JavaScript URLs.
	JSDepth int `yaml:"js_depth"`

	// URLFuzzPaths are appended to base paths of pages that answered 404.
	URLFuzzPaths []string `yaml:"url_fuzz_paths"`

	// JSFuzzPaths are appended to base paths of discovered JavaScript URLs.
	JSFuzzPaths []string `yaml:"js_fuzz_paths"`
}

// DefaultRulesFile returns the built-in ruleset.
// A new value is returned on every call so callers may modify it freely.
func DefaultRulesFile() *RulesFile {
	return &RulesFile{
		Headers: Headers{
			UserAgent:      DefaultUserAgent,
			Accept:         DefaultAccept,
			AcceptLanguage: DefaultAcceptLanguage,
			AcceptEncoding: DefaultAcceptEncoding,
		},
		URLPatterns: []string{
			`https?://[\w\-\.]+(:\d+)?(/[\w\-\./?%&=]*)?`,
			`(/[\w\-\./?%&=]+)+`,
		},
		JSPatterns: []string{
			`https?://[\w\-\.]+(:\d+)?[\w\-\./?%&=]*\.js`,
			`(/[\w\-\./?%&=]*\.js)+`,
		},
		SensitivePatterns: []string{
			`(password|secret|token|key)\s*[=:]\s*['"][^'"]+['"]`,
			`(api|v1|v2|v3)/[\w\-\./?%&=]+`,
			// Private keys
			`-----BEGIN (?:RSA |EC |DSA |OPENSSH |ENCRYPTED |PGP )?PRIVATE KEY(?: BLOCK)?-----`,
			`(?i)(?:== ed25519v1-secret:|hs_ed25519_secret_key|ED25519 PRIVATE KEY)`,
			`PuTTY-User-Key-File-\d+:`,
			// Cloud and service credentials
			`\b(?:AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}\b`,
			`(?i)aws[_\-.]?secret[_\-.]?(?:access)?[_\-.]?key[^\w]*['"][A-Za-z0-9/+=]{40}['"]`,
			`gh[pousr]_[A-Za-z0-9_]{36,255}`,
			`(?i)"(?:access_?token|bearer|jwt)"\s*:\s*"eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+"`,
			`(?i)(?:postgres|mysql|mongodb|redis)://[^@\s'"]+@[^/\s'"]+/\w+`,
			// Storage buckets
			`(?i)(?:https?://)?(?:[a-z0-9][a-z0-9.-]+\.s3[.-](?:[a-z0-9-]+\.)?amazonaws\.com|s3[.-](?:[a-z0-9-]+\.)?amazonaws\.com/[a-z0-9][a-z0-9.-]+)`,
			`(?i)(?:https?://)?(?:storage\.googleapis\.com/[a-z0-9][a-z0-9._-]+|[a-z0-9][a-z0-9._-]+\.storage\.googleapis\.com)`,
			`(?i)(?:https?://)?[a-z0-9]+\.blob\.core\.windows\.net`,
			`(?i)(?:https?://)?[a-z0-9-]+\.(?:firebaseio\.com|firebaseapp\.com)`,
			`(?i)(?:https?://)?[a-z0-9-]+\.[a-z0-9]+\.digitaloceanspaces\.com`,
			// Exposed API docs and debug endpoints
			`(?i)(?:swagger|openapi)\.(?:json|yaml)|/api-docs\b|/graphql\b|graphiql`,
			`(?i)/debug/pprof|/debug/vars|/__debug__/`,
			`(?i)/\.env(?:\.local|\.development|\.production)?\b`,
			// Email addresses
			`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
		},
		URLFilters: []string{
			`\.(css|png|jpg|jpeg|gif|ico|svg|woff|woff2|ttf|eot|mp3|mp4|avi|swf)$`,
		},
		JSFilters: []string{
			`^(https?:)?//cdn\.`,
		},
		URLDepth: DefaultURLDepth,
		JSDepth:  DefaultJSDepth,
		URLFuzzPaths: []string{
			"/admin",
			"/api",
			"/v1",
			"/v2",
			"/swagger",
			"/docs",
		},
		JSFuzzPaths: []string{
			"config.js",
			"api.js",
			"main.js",
			"app.js",
			"index.js",
		},
	}
}
