package compare

import "strings"

// idPairSeparator separates the two IDs in a compare path token.
const idPairSeparator = "..."

// ParseCompareIDs splits a token of the form "<id>...<id>" into the
// baseline and contender IDs. The split happens on the first occurrence
// of the separator; both sides must be non-empty. The IDs themselves
// are opaque and not validated further.
func ParseCompareIDs(token string) (baseline, contender string, err error) {
	baseline, contender, found := strings.Cut(token, idPairSeparator)
	if !found {
		return "", "", &MalformedIDError{
			Token:  token,
			Reason: "missing '...' separator",
		}
	}

	if baseline == "" {
		return "", "", &MalformedIDError{
			Token:  token,
			Reason: "empty baseline ID",
		}
	}

	if contender == "" {
		return "", "", &MalformedIDError{
			Token:  token,
			Reason: "empty contender ID",
		}
	}

	return baseline, contender, nil
}
