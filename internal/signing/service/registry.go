package service

import "errors"

var errNotP256 = errors.New("public key is not an ECDSA P-256 key")

// Registry selects a SignatureVerifier by algorithm identifier.
type Registry struct {
	verifiers map[string]SignatureVerifier
}

// NewRegistry builds a registry from the given verifiers, keyed by their Algorithm().
func NewRegistry(verifiers ...SignatureVerifier) *Registry {
	r := &Registry{verifiers: make(map[string]SignatureVerifier, len(verifiers))}
	for _, v := range verifiers {
		r.verifiers[v.Algorithm()] = v
	}
	return r
}

// NewDefaultRegistry returns a registry holding the ECDSA P-256 verifier.
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewECDSAP256Verifier())
}

// Get returns the verifier for alg. The match is exact and case-sensitive.
func (r *Registry) Get(alg string) (SignatureVerifier, bool) {
	v, ok := r.verifiers[alg]
	return v, ok
}
