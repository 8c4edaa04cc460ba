package utils

import "errors"

var ErrEmptyUserID = errors.New("channel id requires two non-empty user ids")

// DirectChannelID derives the id of the direct-message channel between two
// users. The two ids are joined in lexicographic order over the full strings,
// so either participant can reconstruct the id locally without a lookup:
// DirectChannelID(a, b) == DirectChannelID(b, a).
func DirectChannelID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", ErrEmptyUserID
	}
	if a > b {
		a, b = b, a
	}
	return a + "_" + b, nil
}
