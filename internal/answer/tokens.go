package answer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// cl100kBase is the encoding used by the ada-002 embedding and
// gpt-3.5/gpt-4 chat models.
const cl100kBase = "cl100k_base"

// TiktokenCounter counts model tokens with the cl100k_base BPE encoding.
// The encoding is loaded lazily on first use.
type TiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktokenCounter creates a counter. The underlying encoding is not
// loaded until the first Count call.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

// Count returns the number of tokens text encodes to.
func (c *TiktokenCounter) Count(text string) (int, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(cl100kBase)
	})
	if c.err != nil {
		return 0, fmt.Errorf("loading %s encoding: %w", cl100kBase, c.err)
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}
