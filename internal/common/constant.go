package common

// AuthorizationHeaderName carries the admin bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT in the authorization header.
const BearerPrefix = "Bearer "

// GenericErrorMessage is returned to clients for every unexpected failure.
const GenericErrorMessage = "an error occurred"
