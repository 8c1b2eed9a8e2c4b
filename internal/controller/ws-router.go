package controller

import (
	"github.com/syncsphere/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", wsrouter.Typed(c.handleAlive))

	// player
	mux.Handle("PLAYER_EVENT", wsrouter.Typed(c.handlePlayerEvent))
	mux.Handle("LOAD_HISTORY", wsrouter.Typed(c.handleLoadHistory))

	// captions
	mux.Handle("UPDATE_CAPTIONS", wsrouter.Typed(c.handleUpdateCaptions))

	mux.OnError(c.sendError)

	return mux
}
