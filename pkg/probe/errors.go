package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Kind names the class of a transport failure
type Kind string

const (
	KindDNS       Kind = "dns"
	KindRefused   Kind = "refused"
	KindTimeout   Kind = "timeout"
	KindCanceled  Kind = "canceled"
	KindTLS       Kind = "tls"
	KindRedirect  Kind = "redirect"
	KindURL       Kind = "url"
	KindTransport Kind = "transport"
)

// TransportError means no status code could be obtained at all. A non-200
// status is never reported as a TransportError.
type TransportError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, cause(e.Err))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(target string, err error) *TransportError {
	return &TransportError{URL: target, Kind: classify(err), Err: err}
}

// cause strips the *url.Error envelope, which only repeats method and URL
func cause(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func classify(err error) Kind {
	if errors.Is(err, ErrTooManyRedirects) {
		return KindRedirect
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindRefused
	}

	if isTLSError(err) {
		return KindTLS
	}

	return KindTransport
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
	)

	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert):
		return true
	}
	return false
}
