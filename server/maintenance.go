package server

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartMaintenance launches background jobs: a periodic store health check
// and an hourly registry summary. The returned scheduler should be stopped
// on shutdown.
func (s *Server) StartMaintenance() *cron.Cron {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc("@every 5m", func() {
		if err := s.Store.Ping(); err != nil {
			log.Error().Err(err).Msg("Store health check failed")
			return
		}
		log.Debug().Msg("Store health check passed")
	}); err != nil {
		log.Error().Err(err).Msg("Failed to register health check job")
	}

	if _, err := scheduler.AddFunc("@hourly", func() {
		records, err := s.Store.GetAllFiles()
		if err != nil {
			log.Error().Err(err).Msg("Registry summary failed")
			return
		}
		vectors := 0
		for _, r := range records {
			vectors += len(r.VectorIDs)
		}
		log.Info().Int("files", len(records)).Int("vectors", vectors).Msg("Registry summary")
	}); err != nil {
		log.Error().Err(err).Msg("Failed to register registry summary job")
	}

	scheduler.Start()
	return scheduler
}
