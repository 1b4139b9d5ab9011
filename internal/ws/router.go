package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownKind = errors.New("unknown message type")
)

// ConnContext is handed to every handler.
type ConnContext struct {
	Conn   *Conn
	Server *WsServer
}

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, raw []byte) error

// Router keeps a map[type]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[Kind]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names ("text") instead of Go field names ("Text")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Router{handlers: make(map[Kind]rawHandler), validate: v}
}

// Register binds a message type to a strongly‑typed handler. The frame is
// decoded into Req and validated before h runs.
func Register[Req any](
	r *Router,
	kind Kind,
	h func(ctx context.Context, c *ConnContext, req Req) error,
) {
	if kind == "" {
		panic("ws router: empty kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[kind] = func(ctx context.Context, c *ConnContext, raw []byte) error {
		var req Req
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := r.validate.Struct(req); err != nil {
			return err
		}
		return h(ctx, c, req)
	}
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, raw []byte) error {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == "" {
		head.Type = KindChat
	}

	r.mu.RLock()
	h, ok := r.handlers[head.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKind, head.Type)
	}
	return h(ctx, c, raw)
}

// describe turns a dispatch error into the text sent back to the client.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" must not be empty")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "eq":
			msgs = append(msgs, fmt.Sprintf("%s must be %q", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
