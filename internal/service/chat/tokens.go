package chat

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

// promptTokens approximates the token footprint of an assembled prompt
// for debug logging. Returns -1 when the encoding is unavailable so a
// missing tokenizer never fails a turn.
func promptTokens(text string) int {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		tk = enc
	})
	if tk == nil {
		return -1
	}
	return len(tk.Encode(text, nil, nil))
}
