// Package sanitize strips unsafe markup from user-submitted comment text.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Policy is safe for concurrent use once built.
type Policy struct {
	p *bluemonday.Policy
}

// New returns the user-generated-content policy: basic formatting and links
// survive, scripts and event handlers do not. Links open in a new tab without
// a referrer.
func New() *Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return &Policy{p: p}
}

func (p *Policy) Sanitize(raw string) string {
	return p.p.Sanitize(raw)
}
