// Package convkey derives the identity of a buyer/seller chat thread about a
// single announcement.
package convkey

import "strings"

// Separator joins the three ids of a key.
const Separator = "-"

// Key identifies a conversation as seller-buyer-announcement.
type Key string

func (k Key) String() string {
	return string(k)
}

// Derive builds the key for a thread. The order is fixed (seller, buyer,
// announcement), so swapping buyer and seller yields a different key.
// ok is false when any id is empty.
func Derive(sellerID, buyerID, announcementID string) (Key, bool) {
	if sellerID == "" || buyerID == "" || announcementID == "" {
		return "", false
	}
	return Key(sellerID + Separator + buyerID + Separator + announcementID), true
}

// Parse splits a key back into its ids. Ids that contain the separator make
// the key ambiguous and are reported as not ok.
func Parse(k Key) (sellerID, buyerID, announcementID string, ok bool) {
	parts := strings.Split(string(k), Separator)
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], true
}
