// Package view renders a shell [goShell.View] as HTML with gomponents.
//
// The page is a sidebar (brand panel, welcome line, navigation, logout) next
// to a header and a main area. The header and main area are opaque slots
// filled by the caller. The brand panel is also exposed as a fragment so a
// loading placeholder can be swapped for the settled panel.
package view
