// Package tokencount counts tokens with the cl100k_base encoding used
// by the embedding and chat models.
package tokencount

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter loads the cl100k_base encoding. When the encoding data is
// unavailable the counter falls back to a bytes/4 estimate.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("token encoding unavailable, using byte estimate", "error", err)
		return &Counter{}
	}
	return &Counter{encoding: enc}
}

func (c *Counter) Count(text string) int {
	if c.encoding == nil {
		return (len(text) + 3) / 4
	}
	return len(c.encoding.Encode(text, nil, nil))
}
