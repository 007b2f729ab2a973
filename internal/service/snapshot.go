package service

import (
	"time"

	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

// publishSnapshot hands the full in-memory state to the persistence
// collaborator. Called after every committed mutation; the writer is
// non-blocking, so the engine never waits on persistence.
func publishSnapshot(
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
	w snapshot.Writer,
) {
	w.Write(snapshot.Snapshot{
		TakenAt: time.Now(),
		Orders:  orders.Dump(),
		Trades:  ledger.All(),
		Volumes: volumes.Snapshot(),
	})
}
