// Package authcore is the identity and session core of the CodyOn backend:
// password sign-in, JWT access/refresh token issuance and rotation, Kakao
// OAuth login bridging, and time-boxed email verification codes.
//
// The package is the business layer only. HTTP routing, request validation,
// and the durable user store live in the embedding application; authcore
// talks to them through the [UserStore] and [Mailer] interfaces and owns all
// volatile session state in Redis through the cache subpackage.
//
// Engine methods are safe for concurrent use after initialization through
// [Builder.Build]. Every ephemeral record the engine writes is TTL-keyed and
// self-destructs; the only explicit revocation is the overwrite of a user's
// refresh-token record when a new pair is issued.
package authcore
