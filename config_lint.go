package goShell

import (
	"strings"
	"time"
)

// LintSeverity grades a [LintWarning].
type LintSeverity uint8

const (
	// LintInfo flags a deliberate but unusual choice.
	LintInfo LintSeverity = iota
	// LintWarn flags a likely misconfiguration.
	LintWarn
)

// LintWarning is a non-fatal configuration finding.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings from [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (ws LintResult) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that validate but are probably not what an operator
// wants. It never fails.
func (c *Config) Lint() LintResult {
	var ws LintResult

	if c.Branding.Timeout > 30*time.Second {
		ws = append(ws, LintWarning{
			Code:     "branding_timeout_long",
			Severity: LintWarn,
			Message:  "branding fetches longer than 30s keep the brand panel in its placeholder",
		})
	}
	if strings.HasPrefix(c.Branding.BaseURL, "http://") {
		ws = append(ws, LintWarning{
			Code:     "branding_endpoint_insecure",
			Severity: LintWarn,
			Message:  "bearer credentials are sent to a plain-http branding endpoint",
		})
	}
	if strings.HasPrefix(c.Branding.AssetOrigin, "http://") {
		ws = append(ws, LintWarning{
			Code:     "asset_origin_insecure",
			Severity: LintInfo,
			Message:  "logo assets load over plain http",
		})
	}
	if !c.Metrics.Enabled {
		ws = append(ws, LintWarning{
			Code:     "metrics_disabled",
			Severity: LintInfo,
			Message:  "stale-response and degradation counters are not recorded",
		})
	}
	if c.Routes.LoggedOut == "/" {
		ws = append(ws, LintWarning{
			Code:     "logged_out_route_root",
			Severity: LintInfo,
			Message:  "logout redirects to the root route",
		})
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		ws = append(ws, LintWarning{
			Code:     "audit_blocking",
			Severity: LintWarn,
			Message:  "a full audit buffer blocks logout until the sink drains",
		})
	}

	return ws
}
