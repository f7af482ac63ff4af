package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every API surface mounted by pkg/app. RegisterRoutes runs once,
// before the server starts, and must not register the same method and path twice.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
