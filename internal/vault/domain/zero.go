package domain

// Zero overwrites key material once it is no longer needed. Nil slices are ignored.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
