// Package security provides validation, sanitization, and limits for the entrybatch package.
//
// This package includes:
//   - Error message sanitization before details are reported or stored
//   - Clamping functions enforcing safe limits on attempts and delays
//   - Column name validation for record sources
//
// Most users should import the root package github.com/jdziat/entrybatch
// which re-exports these functions.
package security
