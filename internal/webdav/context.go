package webdav

import "context"

type contextKey string

const webDAVUserIDContextKey contextKey = "webdav.userID"

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, webDAVUserIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(webDAVUserIDContextKey).(int64)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
