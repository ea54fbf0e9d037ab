package collaboration

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// cardIDPattern is the accepted wire format: two 36-char UUIDs joined by '_'.
var cardIDPattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}_[0-9a-fA-F-]{36}$`)

// IsCardIDFormat reports whether s has the card id shape. It does not check
// that both halves parse as UUIDs; ParseCardID does.
func IsCardIDFormat(s string) bool {
	return cardIDPattern.MatchString(s)
}

// BuildCardID returns the canonical pairing key "<suggested_se_id>_<seeking_se_id>".
func BuildCardID(suggestedSEID, seekingSEID uuid.UUID) string {
	return suggestedSEID.String() + "_" + seekingSEID.String()
}

// BuildCardIDFromStrings parses both SE ids and builds the canonical card id.
func BuildCardIDFromStrings(suggestedSEID, seekingSEID string) (string, error) {
	sug, err := uuid.Parse(suggestedSEID)
	if err != nil {
		return "", ErrInvalidCardID.WithErr(err)
	}
	seek, err := uuid.Parse(seekingSEID)
	if err != nil {
		return "", ErrInvalidCardID.WithErr(err)
	}
	return BuildCardID(sug, seek), nil
}

// ParseCardID splits a card id back into (suggested_se_id, seeking_se_id).
func ParseCardID(cardID string) (suggestedSEID, seekingSEID uuid.UUID, err error) {
	if !IsCardIDFormat(cardID) {
		return uuid.Nil, uuid.Nil, ErrInvalidCardID
	}
	left, right, _ := strings.Cut(cardID, "_")
	if suggestedSEID, err = uuid.Parse(left); err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidCardID.WithErr(err)
	}
	if seekingSEID, err = uuid.Parse(right); err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidCardID.WithErr(err)
	}
	return suggestedSEID, seekingSEID, nil
}

// CanonicalCardID normalizes a well-formed card id to lower case.
func CanonicalCardID(cardID string) (string, error) {
	sug, seek, err := ParseCardID(cardID)
	if err != nil {
		return "", err
	}
	return BuildCardID(sug, seek), nil
}
