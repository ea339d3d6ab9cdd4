package service

import (
	"context"

	"field-data-be/internal/dto"
	"field-data-be/pkg/events"
	"field-data-be/pkg/location"
)

type ILocationService interface {
	Report(ctx context.Context, req *dto.ReportLocationRequest) (*dto.LocationResponse, error)
	Current(ctx context.Context) (*dto.LocationResponse, bool)
	// Feed is the source that browser geolocation readings are pushed into.
	Feed() *location.ChanSource
}

type locationService struct {
	watcher *location.Watcher
	feed    *location.ChanSource
}

// NewLocationService wires watcher updates to the event bus. The caller runs
// watcher.Watch on Feed() and on any other source.
func NewLocationService(watcher *location.Watcher, feed *location.ChanSource, publisher IPublisherService) ILocationService {
	watcher.OnUpdate(func(p location.Position) {
		_ = publisher.Publish(context.Background(), events.New(events.LocationUpdated, map[string]interface{}{
			"latitude":  p.Latitude,
			"longitude": p.Longitude,
			"accuracy":  p.Accuracy,
			"timestamp": p.Timestamp,
		}))
	})
	return &locationService{watcher: watcher, feed: feed}
}

// Report applies a reading synchronously, so it is current when Report
// returns.
func (s *locationService) Report(ctx context.Context, req *dto.ReportLocationRequest) (*dto.LocationResponse, error) {
	s.watcher.Observe(location.Update{Position: location.Position{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	}})
	res, _ := s.Current(ctx)
	return res, nil
}

func (s *locationService) Current(ctx context.Context) (*dto.LocationResponse, bool) {
	p, ok := s.watcher.Current()
	if !ok {
		return nil, false
	}
	return &dto.LocationResponse{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Accuracy:  p.Accuracy,
		Timestamp: p.Timestamp,
	}, true
}

func (s *locationService) Feed() *location.ChanSource {
	return s.feed
}
