// Package random generates verification codes, invite codes, and table
// codes from crypto/rand.
package random

import "crypto/rand"

const digits = "0123456789"

// letters drops lookalikes (I, O, 0, 1) so codes survive being read aloud.
const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Numeric returns an SMS verification code of the given length.
func Numeric(length int) string {
	return pick(digits, length)
}

// Code returns an uppercase alphanumeric code for invites and tables.
func Code(length int) string {
	return pick(letters, length)
}

// pick draws unbiased indexes by rejecting bytes past the largest
// multiple of len(set).
func pick(set string, length int) string {
	if length <= 0 {
		return ""
	}
	limit := 256 - 256%len(set)
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms; bail to a
			// fixed fill rather than return a short code.
			for len(out) < length {
				out = append(out, set[0])
			}
			break
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, set[int(b)%len(set)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}
