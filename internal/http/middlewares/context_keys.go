package middlewares

// gin context keys shared between middlewares and handlers.
const (
	CtxRequestID = "request_id"

	ctxUserIDKey  = "auth.userID"
	ctxEmailKey   = "auth.email"
	ctxNombreKey  = "auth.nombre"
	ctxRoleKey    = "auth.role"
	ctxIsAdminKey = "auth.isAdmin"
)
