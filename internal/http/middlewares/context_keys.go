package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxPrincipal = "auth.principal"
)
