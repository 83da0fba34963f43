package sync

// Merge combines the backend's authoritative list with locally written
// records. Every remote record is kept as-is. A local record is appended
// only when it is absent remotely and its id is still pending delivery;
// anything else local is stale and dropped.
func Merge[T any](remote, local []T, key func(T) string, pending map[string]bool) []T {
	out := make([]T, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		out = append(out, r)
		seen[key(r)] = true
	}
	for _, l := range local {
		id := key(l)
		if seen[id] || !pending[id] {
			continue
		}
		seen[id] = true
		out = append(out, l)
	}
	return out
}
