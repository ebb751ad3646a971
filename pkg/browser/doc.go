// Package browser implements core.ActionPort on a Chrome session driven by
// go-rod.
//
// The remote form is described entirely by configuration: which elements to
// click to open, duplicate and save an entry, and which inputs receive which
// record fields. Selectors starting with "/" or "(" are XPath; anything else
// is CSS.
//
// A click intercepted by the loading overlay, or an overlay that outlives
// its timeout, is reported as a transient failure. Every other error is
// fatal.
package browser
