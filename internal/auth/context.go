package auth

import (
	"context"
)

type contextKey string

const resultContextKey contextKey = "auth_result"

// ContextWithResult 将鉴权结果写入 context
func ContextWithResult(ctx context.Context, result *Result) context.Context {
	return context.WithValue(ctx, resultContextKey, result)
}

// ResultFromContext 读取鉴权结果；未鉴权时返回 nil
func ResultFromContext(ctx context.Context) *Result {
	result, _ := ctx.Value(resultContextKey).(*Result)
	return result
}

// UserIDFromContext 当前用户 ID
func UserIDFromContext(ctx context.Context) string {
	if result := ResultFromContext(ctx); result != nil {
		return result.UserID
	}
	return ""
}
