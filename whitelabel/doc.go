// Package whitelabel serves tenant branding over HTTP: the endpoint the
// shell's branding client calls.
//
// Branding is stored per tenant in a Redis hash wl:<tenant> with the fields
// companyName and companyLogo. Tenants without a record get the default
// product branding. The tenant is taken from the caller's bearer credential.
package whitelabel
