package main

import "errors"

// Failure taxonomy shared by the HTTP handlers, the RPC client and the
// fallback simulator. The string form doubles as the wire error code.
var (
	ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")
	ErrAlreadyClaimed    = errors.New("BONUS_ALREADY_CLAIMED")
	ErrAlreadyRedeemed   = errors.New("PROMO_ALREADY_REDEEMED")
	ErrInvalidCode       = errors.New("INVALID_PROMO_CODE")
	ErrInvalidFormat     = errors.New("INVALID_TRADE_LINK")
	ErrTradeLinkRequired = errors.New("TRADE_LINK_REQUIRED")
	ErrNotFound          = errors.New("NOT_FOUND")
	ErrAuthRequired      = errors.New("AUTH_REQUIRED")
	ErrNetworkFailure    = errors.New("NETWORK_FAILURE")
	ErrBusy              = errors.New("ACTION_IN_FLIGHT")
	ErrNoSession         = errors.New("NO_SESSION")
)

// RemoteError carries a {success:false} envelope returned by the API with a
// 2xx status. It is distinct from transport-level failures so callers can
// tell "the server said no" apart from "the server was unreachable".
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Code
	}
	for _, known := range []error{
		ErrInsufficientFunds,
		ErrAlreadyClaimed,
		ErrAlreadyRedeemed,
		ErrInvalidCode,
		ErrInvalidFormat,
		ErrTradeLinkRequired,
		ErrNotFound,
		ErrAuthRequired,
		ErrNetworkFailure,
		ErrBusy,
		ErrNoSession,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "INTERNAL_ERROR"
}

// recoverable reports whether a remote failure should be silently absorbed by
// switching to demo data instead of surfacing an error to the user.
func recoverable(err error) bool {
	return errors.Is(err, ErrNetworkFailure) || errors.Is(err, ErrAuthRequired)
}
