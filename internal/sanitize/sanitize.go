// Package sanitize strips markup from user-supplied text before it is
// stored. Album names and descriptions are rendered by the frontend as
// plain text, so anything that looks like HTML in them is unwanted.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy, initialized once via sync.Once.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first
// call. StrictPolicy removes all HTML elements and attributes outright.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from user-provided text and trims surrounding
// whitespace. Called on album names and descriptions before storing them.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
