// Package inbound routes unauthenticated requests from embedded site
// surfaces, lead capture forms and OAuth callback redirects, to their
// handlers.
package inbound
