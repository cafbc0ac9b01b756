package parser

import "io"

// SingleResultParser defines an interface for parsing HTML content that returns a single result
type SingleResultParser[T any] interface {
	ParseHtml(body io.Reader) (T, error)
}
