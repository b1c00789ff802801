// Package pkgprobe answers the question the sandbox's require stub asks:
// can this npm package be loaded from the registry as a plain script, and
// if not, why not.
package pkgprobe

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
)

// Verdict classifies a package.
type Verdict string

const (
	// Usable means the registry serves the package; load it with a script tag.
	Usable        Verdict = "usable"
	TypingsOnly   Verdict = "typings"
	ServerOnly    Verdict = "backend"
	CompilerOwned Verdict = "compiler"
	BuiltIn       Verdict = "builtin"
	NotFound      Verdict = "not_found"
	// Unknown covers registry answers other than success and 404.
	Unknown Verdict = "unknown"
)

var coreModules = regexp.MustCompile(`^(assert|buffer|child_process|cluster|crypto|dgram|dns|domain|events|fs|http|https|net|os|path|punycode|querystring|readline|stream|string_decoder|timers|tls|tty|url|util|v8|vm|zlib)(/.*)?$`)

var builtIn = map[string]bool{"node-sass": true, "react": true, "react-dom": true}

var validName = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._~-]*/)?[a-z0-9][a-zA-Z0-9._~-]*(@[a-zA-Z0-9.^~<>=*-]+)?(/[a-zA-Z0-9._~@/-]*)?$`)

// Classify explains why a package the registry does not serve cannot be
// used.
func Classify(name string) Verdict {
	switch {
	case strings.HasPrefix(name, "@types/"):
		return TypingsOnly
	case coreModules.MatchString(name):
		return ServerOnly
	case strings.HasPrefix(name, "@babel/"):
		return CompilerOwned
	case builtIn[name]:
		return BuiltIn
	default:
		return NotFound
	}
}

// Message is the text shown to the user for a verdict.
func Message(name string, v Verdict) string {
	switch v {
	case Usable:
		return fmt.Sprintf("Package %s is served by the registry; load it with a script tag", name)
	case TypingsOnly:
		return fmt.Sprintf("Package %s isn't supported because it's typing package", name)
	case ServerOnly:
		return fmt.Sprintf("Package %s isn't supported because it's backend", name)
	case CompilerOwned:
		return "The compiler already transpiles your code. Don't use it."
	case BuiltIn:
		return fmt.Sprintf("Package %s is built-in by compiler. Don't use it", name)
	case NotFound:
		return fmt.Sprintf("Package %s doesn't exist", name)
	default:
		return fmt.Sprintf("Package %s could not be checked", name)
	}
}

// ValidateName rejects strings that are not npm package specifiers.
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, "..") || !validName.MatchString(name) {
		return errors.NewValidationError(errors.ErrCodeInvalidPackage, "invalid package name: "+name)
	}
	return nil
}

// Report is the outcome of one probe.
type Report struct {
	Package string  `json:"package" yaml:"package"`
	Verdict Verdict `json:"verdict" yaml:"verdict"`
	Message string  `json:"message" yaml:"message"`
	Status  int     `json:"status" yaml:"status"`
	// URL and Snippet are set for usable packages. URL is where the
	// registry redirected to.
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// Prober checks packages against the registry.
type Prober struct {
	registry string
	client   *http.Client
	limiter  *rate.Limiter
	logger   logging.Logger
}

// NewProber creates a prober from registry settings.
func NewProber(cfg config.RegistryConfig, logger logging.Logger) *Prober {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Prober{
		registry: strings.TrimRight(cfg.URL, "/"),
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		logger:   logger.WithComponent("pkgprobe"),
	}
}

// Probe issues a HEAD request for name and classifies the answer.
func (p *Prober) Probe(ctx context.Context, name string) (*Report, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for registry rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.registry+"/"+name, nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeRegistryProbe, "building registry request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRegistryProbe, "registry unreachable", err)
	}
	defer resp.Body.Close()

	report := &Report{Package: name, Status: resp.StatusCode}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		report.Verdict = Usable
		report.URL = resp.Request.URL.String()
		report.Snippet = fmt.Sprintf(`<script src="%s" crossorigin></script>`, report.URL)
	case resp.StatusCode == http.StatusNotFound:
		report.Verdict = Classify(name)
	default:
		report.Verdict = Unknown
	}
	report.Message = Message(name, report.Verdict)

	p.logger.Debug(ctx, "Package probed",
		"package", name,
		"status", resp.StatusCode,
		"verdict", report.Verdict)
	return report, nil
}
