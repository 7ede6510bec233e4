package view

import (
	"time"

	goShell "github.com/MrEthical07/goShell"
	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/navigation"
	"github.com/MrEthical07/goShell/session"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Default endpoint paths used by the page script and the logout form.
const (
	DefaultBrandingPath  = "/_shell/branding"
	DefaultLogoErrorPath = "/_shell/logo-error"
	DefaultLogoutPath    = "/logout"
)

// Options locates assets and the shell's own endpoints.
type Options struct {
	Title         string
	AssetOrigin   string
	BrandingPath  string
	LogoErrorPath string
	LogoutPath    string
}

// WithDefaults fills empty fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.Title == "" {
		o.Title = branding.DefaultProductName
	}
	if o.BrandingPath == "" {
		o.BrandingPath = DefaultBrandingPath
	}
	if o.LogoErrorPath == "" {
		o.LogoErrorPath = DefaultLogoErrorPath
	}
	if o.LogoutPath == "" {
		o.LogoutPath = DefaultLogoutPath
	}
	return o
}

// Slots are the opaque regions the shell hosts but does not interpret.
// Nil slots render empty.
type Slots struct {
	Notifications g.Node
	Content       g.Node
}

// DisplayName is the name shown in the welcome line.
func DisplayName(s *session.Session) string {
	if s == nil || s.Name == "" {
		return "User"
	}
	return s.Name
}

// MemberSince formats a session creation time as a short date.
func MemberSince(t time.Time) string {
	return t.Format("1/2/2006")
}

// Page renders the full document for v.
func Page(v goShell.View, opts Options, slots Slots) g.Node {
	opts = opts.WithDefaults()
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.TitleEl(g.Text(opts.Title)),
				html.StyleEl(g.Raw(pageCSS)),
			),
			html.Body(
				html.Div(
					html.Class("layout-container"),
					Sidebar(v, opts),
					html.Div(
						html.Class("shell-main"),
						html.Header(html.Class("shell-header"), optional(slots.Notifications)),
						html.Main(html.Class("shell-content"), optional(slots.Content)),
					),
				),
				html.Script(g.Raw(pageScript)),
			),
		),
	)
}

// Sidebar renders the brand panel, the welcome block, the navigation list
// and the logout form.
func Sidebar(v goShell.View, opts Options) g.Node {
	opts = opts.WithDefaults()
	return html.Aside(
		html.Class("shell-sidebar"),
		html.Div(
			BrandPanel(v, opts),
			html.P(html.Class("welcome"),
				g.Text("Welcome, "),
				html.Strong(g.Text(DisplayName(v.Session))),
			),
			g.Iff(v.Session != nil && v.Session.CreatedAt != nil, func() g.Node {
				return html.P(html.Class("member-since"),
					g.Text("Member since: "+MemberSince(*v.Session.CreatedAt)),
				)
			}),
		),
		html.Nav(
			html.Class("shell-nav"),
			html.Ul(g.Map(v.Links, navItem)),
		),
		html.Div(
			html.Class("shell-logout"),
			html.Form(
				html.Method("post"),
				html.Action(opts.LogoutPath),
				html.Button(html.Type("submit"), html.Class("logout-button"), g.Text("🚪 Logout")),
			),
		),
	)
}

func navItem(l navigation.Link) g.Node {
	return html.Li(
		html.A(
			html.Href(l.Path),
			g.If(l.Active, html.Class("active-link")),
			g.Attr("aria-label", l.Label),
			g.Text(l.Icon+" "+l.Label),
		),
	)
}

// BrandPanel renders the brand region: a placeholder while branding loads,
// the tenant logo when one applies, the company name otherwise. The
// placeholder carries the URL the page script polls for the settled panel.
func BrandPanel(v goShell.View, opts Options) g.Node {
	opts = opts.WithDefaults()
	p := v.Panel()
	switch p.Kind {
	case branding.PanelPlaceholder:
		return html.Div(
			html.ID("brand-panel"),
			html.Class("brand-placeholder mb-4"),
			html.Data("src", opts.BrandingPath),
		)
	case branding.PanelLogo:
		return html.Div(
			html.ID("brand-panel"),
			html.Img(
				html.Src(branding.LogoURL(opts.AssetOrigin, p.LogoRef)),
				html.Alt(p.Name),
				html.Class("brand-logo mb-4"),
				html.Data("ref", p.LogoRef),
				html.Data("report", opts.LogoErrorPath),
				g.Attr("onerror", "shellLogoError(this)"),
			),
		)
	default:
		return html.Div(
			html.ID("brand-panel"),
			html.H2(html.Class("mb-4"), g.Text(p.Name)),
		)
	}
}

func optional(n g.Node) g.Node {
	if n == nil {
		return g.Group(nil)
	}
	return n
}

const pageCSS = `
.layout-container{display:flex;min-height:100vh}
.shell-sidebar{display:flex;flex-direction:column;height:100vh;width:250px;background:#212529;color:#fff;padding:1rem}
.shell-nav{flex-grow:1;overflow-y:auto}
.shell-nav ul{list-style:none;padding:0}
.shell-nav a{color:#ddd;display:block;padding:.4rem 0;text-decoration:none}
.shell-nav a.active-link{color:#fff;font-weight:600}
.shell-logout{margin-top:auto;padding-top:1rem}
.brand-placeholder{height:50px;background:#3a3f44;border-radius:5px}
.brand-logo{max-height:50px;width:auto}
.welcome{font-size:14px;color:#bbb;margin-bottom:.5rem}
.member-since{font-size:12px;color:#888;margin-top:0;margin-bottom:2rem}
.shell-main{flex:1;display:flex;flex-direction:column}
.shell-header{display:flex;justify-content:flex-end;align-items:center;padding:.5rem 2rem;background:#fff;border-bottom:1px solid #dee2e6;height:60px}
.shell-content{flex:1;overflow-y:auto}
`

const pageScript = `
function shellSwapPanel(html){var el=document.getElementById("brand-panel");if(el){el.outerHTML=html;}}
function shellLoadPanel(){var el=document.getElementById("brand-panel");if(!el||!el.dataset.src){return;}
fetch(el.dataset.src,{credentials:"same-origin"}).then(function(r){return r.text();}).then(shellSwapPanel);}
function shellLogoError(img){var body=new URLSearchParams({ref:img.dataset.ref});
fetch(img.dataset.report,{method:"POST",body:body,credentials:"same-origin"}).then(function(r){return r.text();}).then(shellSwapPanel);}
shellLoadPanel();
`
