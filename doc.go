// Package membership resolves who is making a request for admin style
// web applications.
//
// Resolution order:
//   - The per request cache (RequestContext) is consulted first. Once a
//     request has resolved its user, including "no user", later calls
//     return the cached value even if the session changes.
//   - The session entry stored under the configured key (default
//     "Admin") is read next.
//   - Finally a signed token carried by the request is decoded. The
//     cookie "token" wins over the "token" and "jwtToken" query
//     parameters, which win over an Authorization bearer header.
//     A token login is recorded and audited as an automatic login.
//
// Explicit login:
//   - SessionAuthenticator.Login resolves an account by name, email,
//     mobile or code, verifies the credential, records the login,
//     issues the token cookie and stores the user in the session.
//     Logout clears the whole session and expires the cookie.
//
// Audit sinks:
//   - AuditSink receives login, automatic login and logout entries.
//     Sinks run best effort (errors are logged) so a database or file
//     writer never blocks authentication. See the audit package.
//
// Hosts wire the provider through middleware/identity (go-router) or
// middleware/fiberware (fiber with its session store).
package membership
