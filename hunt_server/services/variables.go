package services

const defaultMaxImageBytes = 10 << 20

type Variables struct {
	// Shared secret presented by the AR client as "Authorization: Bearer <secret>".
	UnitySecret string

	// Requests per minute per client address on the AR client endpoints, 0 disables the limit.
	UnityRateLimit int

	MaxImageBytes int64
}

func (vars *Variables) withDefaults() Variables {
	out := *vars
	if out.MaxImageBytes <= 0 {
		out.MaxImageBytes = defaultMaxImageBytes
	}
	return out
}
