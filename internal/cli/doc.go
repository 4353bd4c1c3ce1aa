// Package cli implements the matchcal command-line interface.
package cli
