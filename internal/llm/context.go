package llm

import "context"

type purposeKey struct{}

// WithPurpose labels every backend request made under ctx, e.g.
// "exercises" or "session-feedback". Client.Generate sets it from
// Call.Purpose.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
