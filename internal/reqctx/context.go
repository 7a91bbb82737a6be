package reqctx

import "context"

type ctxKey string

const (
	keyRID ctxKey = "hobbiz_rid"
	keyUID ctxKey = "hobbiz_uid"
)

// WithRID stores the request id used to correlate logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the request id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithUID stores the authenticated user id.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

// UID returns the authenticated user id if present.
func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}

// Prefix formats the correlation fields for a log line.
func Prefix(ctx context.Context) string {
	rid, uid := RID(ctx), UID(ctx)
	switch {
	case rid != "" && uid != "":
		return "[rid=" + rid + " uid=" + uid + "] "
	case rid != "":
		return "[rid=" + rid + "] "
	case uid != "":
		return "[uid=" + uid + "] "
	}
	return ""
}
