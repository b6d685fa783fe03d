package store

import (
	"log/slog"
	"time"

	"influencer/internal/config"
	"influencer/internal/workitem"
)

// Open builds the DirStore for a storage root from the loaded configuration.
func Open(cfg *config.Config, root string, logger *slog.Logger) *DirStore {
	return NewDirStore(root, Options{
		Codec:         workitem.DirName{},
		ArchiveFolder: cfg.Posting.ArchiveFolder,
		Settle:        time.Duration(cfg.Production.SettleMillis) * time.Millisecond,
		Logger:        logger,
	})
}
