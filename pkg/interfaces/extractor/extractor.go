package extractor

import "context"

// Input bundles the message signals handed to a semantic extractor: the raw
// List-Unsubscribe header value (may be empty) and a bounded body excerpt.
type Input struct {
	HeaderValue string
	BodyExcerpt string
	Subject     string
}

// Extractor is the single-operation capability behind the resolver's semantic
// tier. Extract returns (url, true, nil) when a candidate was found,
// ("", false, nil) when the extractor cleanly reported no link, and a non-nil
// error for transport failures or responses that violate the expected
// grammar. The resolver treats every non-found result as a tier miss.
type Extractor interface {
	Extract(ctx context.Context, in Input) (url string, found bool, err error)
}

// Nop never finds a link. Useful for tests and for hosts that disable the
// semantic tier.
type Nop struct{}

var _ Extractor = (*Nop)(nil)

func (n *Nop) Extract(ctx context.Context, in Input) (string, bool, error) {
	return "", false, nil
}
