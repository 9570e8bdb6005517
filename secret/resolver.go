package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const refPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

// Resolver turns configured values into secrets.
//
// A value is first expanded against the environment. A value that is a
// whole "secretref:<provider>:<ref>" is replaced by what the provider
// returns; refs embedded in a longer value are replaced in place.
//
// Contract:
// - Concurrency: safe for concurrent ResolveValue calls once configured.
// - Errors: an empty secret is ErrEmptySecret unless AllowEmpty is set.
type Resolver struct {
	providers  map[string]Provider
	allowEmpty bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProvider registers p, replacing any provider with the same name.
func WithProvider(p Provider) Option {
	return func(r *Resolver) {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
}

// AllowEmpty accepts providers that resolve to the empty string.
func AllowEmpty() Option {
	return func(r *Resolver) { r.allowEmpty = true }
}

// NewResolver creates a resolver with no providers unless given.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultResolver resolves env and file refs.
func NewDefaultResolver() *Resolver {
	return NewResolver(WithProvider(NewEnvProvider()), WithProvider(NewFileProvider()))
}

// ResolveValue expands value and resolves every secret ref in it.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.lookup(ctx, provider, ref)
	}
	if strings.HasPrefix(expanded, refPrefix) && !inlineRef.MatchString(expanded) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, expanded)
	}

	var firstErr error
	out := inlineRef.ReplaceAllStringFunc(expanded, func(m string) string {
		if firstErr != nil {
			return m
		}
		sub := inlineRef.FindStringSubmatch(m)
		v, err := r.lookup(ctx, sub[1], sub[2])
		if err != nil {
			firstErr = err
			return m
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Close closes every registered provider.
func (r *Resolver) Close() error {
	var errs []error
	for name, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ParseSecretRef splits "secretref:<provider>:<ref>". The ref may contain
// colons but no whitespace.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" || strings.ContainsFunc(rest, unicode.IsSpace) {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) lookup(ctx context.Context, name, ref string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if v == "" && !r.allowEmpty {
		return "", fmt.Errorf("%w: %s:%s", ErrEmptySecret, name, ref)
	}
	return v, nil
}
