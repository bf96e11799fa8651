package llm

import "fmt"

// MissingCredentialError indicates a cloud provider was selected without an
// API key available through any resolution tier.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no API key configured for provider %q: set it in the config file or the provider's environment variable", e.Provider)
}

// UnsupportedProviderError indicates a provider id outside the known set.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// UnsupportedCapabilityError indicates a provider cannot perform the
// requested operation (for example image analysis on a text-only provider).
type UnsupportedCapabilityError struct {
	Provider   string
	Capability Capability
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Capability)
}

// ProviderRequestError wraps any failure from a vendor call: network errors,
// auth rejections, rate limits, malformed responses. The original cause is
// preserved for unwrapping.
type ProviderRequestError struct {
	Provider string
	Err      error
}

func (e *ProviderRequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderRequestError) Unwrap() error {
	return e.Err
}
