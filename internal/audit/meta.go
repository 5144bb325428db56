package audit

import (
	"context"
	"net/http"
	"strings"
)

// RequestMeta — данные HTTP-запроса, попадающие в журнал аудита.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type metaKey struct{}

// WithRequestMeta добавляет метаданные запроса в контекст.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext извлекает метаданные запроса (пустые, если их нет).
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	return meta
}

// MetaFromRequest извлекает IP клиента и User-Agent.
// IP берётся из первого элемента X-Forwarded-For, затем из X-Real-IP.
func MetaFromRequest(r *http.Request) RequestMeta {
	meta := RequestMeta{UserAgent: r.Header.Get("User-Agent")}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		meta.IPAddress = strings.TrimSpace(first)
	} else {
		meta.IPAddress = r.Header.Get("X-Real-IP")
	}
	return meta
}
