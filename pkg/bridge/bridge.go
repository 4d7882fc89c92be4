/*
Package bridge implements the resilient HTTP client for the Impala bridge
service.

A Client is bound to one normalized base endpoint and is safe for concurrent
use. Every outgoing call passes through two ordered middlewares:

 1. Retry: idempotent calls are retried on 5xx responses, any call is retried
    on a transport-level failure, with exponential backoff. Non-idempotent
    calls that reached the server are never retried, so a flaky network can
    not duplicate record creation.
 2. Credential attachment: the current temporal token is attached as a bearer
    credential, except on the endpoints used to obtain tokens in the first
    place. A missing or expired token sends the request unauthenticated; the
    server is the authority that rejects it.

Process-wide sharing goes through a Registry: an explicit get-or-create slot
holding at most one live Client, replaced when the endpoint changes and torn
down by Invalidate on logout.
*/
package bridge
