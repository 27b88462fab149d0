// Package service implements the business rules of the todo panel:
// credential issuance, todo ownership, admin role management and auditing.
// Services receive their dependencies through constructors and return
// errors from the util/common taxonomy.
package service

import "context"

type requestInfoKey struct{}

// RequestInfo describes the client of the request being served. It is used
// to annotate audit entries.
type RequestInfo struct {
	IP        string
	UserAgent string
	RequestID string
}

// WithRequestInfo returns a copy of ctx carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the RequestInfo stored in ctx, if any.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
