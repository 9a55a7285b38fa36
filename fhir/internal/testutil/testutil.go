// Package testutil holds small pointer-literal helpers shared by this
// module's FHIR test files.
package testutil

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func Float64Ptr(f float64) *float64 { return &f }

func BoolPtr(b bool) *bool { return &b }
