package client

import (
	"context"
	"sort"
	"sync"

	"vibely/internal/models"
)

// EventFeed caches the events list and the caller's joined events. Local
// state only changes after the server confirms a write.
type EventFeed struct {
	api *Client

	mu     sync.Mutex
	events []*models.Event
	joined []*models.Event
}

func NewEventFeed(api *Client) *EventFeed {
	return &EventFeed{api: api}
}

// Refresh reloads both lists from the server.
func (f *EventFeed) Refresh(ctx context.Context) error {
	events, err := f.api.ListEvents(ctx)
	if err != nil {
		return err
	}
	joined, err := f.api.JoinedEvents(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = uniqueEvents(events)
	f.joined = uniqueEvents(joined)
	return nil
}

// Create posts a new event and adds the server's copy to the list.
func (f *EventFeed) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	event, err := f.api.CreateEvent(ctx, req)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = uniqueEvents(append(f.events, event))
	return event, nil
}

// Join joins an event. On failure the joined list is left as it was.
func (f *EventFeed) Join(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := f.api.JoinEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = uniqueEvents(append(f.joined, event))
	f.events = replaceEvent(f.events, event)
	return event, nil
}

// Leave leaves an event. On failure the joined list is left as it was.
func (f *EventFeed) Leave(ctx context.Context, eventID string) error {
	if err := f.api.LeaveEvent(ctx, eventID); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.joined[:0:0]
	for _, e := range f.joined {
		if e.ID != eventID {
			kept = append(kept, e)
		}
	}
	f.joined = kept
	return nil
}

func (f *EventFeed) Events() []*models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Event(nil), f.events...)
}

func (f *EventFeed) Joined() []*models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Event(nil), f.joined...)
}

// uniqueEvents drops repeated ids, keeping the last copy, and sorts by date.
func uniqueEvents(events []*models.Event) []*models.Event {
	index := make(map[string]int, len(events))
	out := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func replaceEvent(events []*models.Event, event *models.Event) []*models.Event {
	for i, e := range events {
		if e.ID == event.ID {
			events[i] = event
			return events
		}
	}
	return events
}
