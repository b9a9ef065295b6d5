package assemble

// EstimateTokens approximates the token count of text as one token per
// four bytes, rounded up. The estimate only has to be stable and
// monotonic in text length; the budget check uses it on both sides.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
