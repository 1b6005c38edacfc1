// Package types defines the submission categories and their descriptors,
// the Submission and Annotation entities, the Backend and Table storage
// interfaces, and the standard errors shared by the storybench packages.
package types
