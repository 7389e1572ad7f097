package registry

import (
	"log"
	"sync"
	"time"
)

type SweepConfig struct {
	Interval   time.Duration
	MaxRoomAge time.Duration
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval:   5 * time.Minute,
		MaxRoomAge: 10 * time.Minute,
	}
}

// Sweeper periodically garbage-collects idle empty rooms.
type Sweeper struct {
	registry *Registry
	config   SweepConfig
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(registry *Registry, config SweepConfig) *Sweeper {
	return &Sweeper{
		registry: registry,
		config:   config,
		stop:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Room sweeper started (interval: %v, max idle age: %v)",
		s.config.Interval, s.config.MaxRoomAge)
}

func (s *Sweeper) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("Room sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if removed := s.registry.SweepIdleEmptyRooms(s.config.MaxRoomAge); removed > 0 {
				log.Printf("Swept %d idle rooms", removed)
			}
		}
	}
}
