// Package textfmt renders chat text for terminals.
package textfmt
