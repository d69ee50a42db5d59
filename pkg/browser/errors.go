package browser

import "errors"

// Sentinel errors for the provisioning and pool lifecycle. Wrapped values
// carry detail; callers branch with errors.Is.
var (
	// ErrProvisioning reports that a session could not be created. Fatal
	// at pool initialization; surfaced from Replace as ErrPoolDegraded.
	ErrProvisioning = errors.New("browser: session could not be provisioned")

	// ErrUnsupportedBrowser reports an unknown browser kind.
	ErrUnsupportedBrowser = errors.New("browser: unsupported browser kind")

	// ErrPoolExhausted reports that Acquire timed out. Non-fatal: the
	// caller is expected to skip rendering for that request.
	ErrPoolExhausted = errors.New("browser: no session available")

	// ErrPoolClosed reports Acquire or Replace after Shutdown.
	ErrPoolClosed = errors.New("browser: pool is closed")

	// ErrPoolDegraded reports that a replacement session could not be
	// provisioned and the pool is running below its configured size.
	ErrPoolDegraded = errors.New("browser: pool degraded")
)
