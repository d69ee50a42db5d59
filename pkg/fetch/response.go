package fetch

// Encoding of every rendered response body. The browser normalizes the
// document to UTF-8 regardless of the transport encoding.
const Encoding = "utf-8"

// Response is a page rendered through a browser session.
type Response struct {
	// URL is the final page URL, reflecting any redirects that occurred
	// during navigation.
	URL string

	// Body is the full page markup read after all wait and script steps
	// completed.
	Body []byte

	// Encoding is always "utf-8".
	Encoding string

	// Request is the originating request.
	Request *Request
}
