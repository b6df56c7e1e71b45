package prompt

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens approximates how many tokens the text costs against
// the downstream budget. It uses the cl100k_base BPE when available
// and falls back to a bytes/4 heuristic when the encoding cannot be
// loaded (offline environments). Advisory only: the composer never
// truncates, callers size k and W instead.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})

	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return len(text)/4 + 1
}
