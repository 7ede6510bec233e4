package branding

import "strings"

// DefaultProductName is the product identity shown when no tenant branding
// applies.
const DefaultProductName = "MessageMaster"

// Branding is a tenant's display identity. CompanyLogoRef is nil when the
// tenant has no logo.
type Branding struct {
	CompanyName    string
	CompanyLogoRef *string
}

// Default returns the fallback branding for productName.
func Default(productName string) Branding {
	return Branding{CompanyName: productName}
}

// LogoRef returns the logo reference or "".
func (b Branding) LogoRef() string {
	if b.CompanyLogoRef == nil {
		return ""
	}
	return *b.CompanyLogoRef
}

// Phase is a branding lifecycle phase.
type Phase uint8

const (
	// Loading is the phase at the start of every route transition.
	Loading Phase = iota
	// Resolved means a fetch returned well-formed tenant branding.
	Resolved
	// Degraded means the default branding applies.
	Degraded
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// State is the branding value observed by the renderer.
type State struct {
	Phase    Phase
	Branding Branding
}

// LoadingState returns the state every transition starts in.
func LoadingState(productName string) State {
	return State{Phase: Loading, Branding: Default(productName)}
}

// ResolvedState wraps fetched branding.
func ResolvedState(b Branding) State {
	return State{Phase: Resolved, Branding: b}
}

// DegradedState returns the default-branding fallback.
func DegradedState(productName string) State {
	return State{Phase: Degraded, Branding: Default(productName)}
}

// Settled reports whether the state is terminal for its transition.
func (s State) Settled() bool {
	return s.Phase != Loading
}

// PanelKind selects what the brand panel shows.
type PanelKind uint8

const (
	// PanelPlaceholder is a neutral block shown while loading.
	PanelPlaceholder PanelKind = iota
	// PanelLogo shows the tenant logo image.
	PanelLogo
	// PanelText shows the company name as text.
	PanelText
)

// Panel is the render decision for the brand panel.
type Panel struct {
	Kind    PanelKind
	Name    string
	LogoRef string
}

// Panel decides what to render. logoFailed reports that the current logo
// reference failed to load at render time, which downgrades a logo to text.
func (s State) Panel(logoFailed bool) Panel {
	if s.Phase == Loading {
		return Panel{Kind: PanelPlaceholder}
	}
	ref := s.Branding.LogoRef()
	if ref != "" && !logoFailed {
		return Panel{Kind: PanelLogo, Name: s.Branding.CompanyName, LogoRef: ref}
	}
	return Panel{Kind: PanelText, Name: s.Branding.CompanyName}
}

// LogoURL resolves ref against the fixed asset origin.
func LogoURL(assetOrigin, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	origin := strings.TrimRight(assetOrigin, "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return origin + ref
}
