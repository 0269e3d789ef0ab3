package app

import (
	"cryptostore/internal/domain"
	"cryptostore/internal/services/roomkeys"
	"cryptostore/internal/store"
)

// App is one opened store and the services built on it.
type App struct {
	Store    *store.StoreHandle
	RoomKeys domain.RoomKeyStore
}

func newApp(h *store.StoreHandle) *App {
	return &App{
		Store:    h,
		RoomKeys: roomkeys.New(h),
	}
}

// Close releases the store handle.
func (a *App) Close() error { return a.Store.Close() }
