package jenkins

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Queue item classes.
const (
	WaitingItemClass   = "hudson.model.Queue$WaitingItem"
	BlockedItemClass   = "hudson.model.Queue$BlockedItem"
	BuildableItemClass = "hudson.model.Queue$BuildableItem"
	LeftItemClass      = "hudson.model.Queue$LeftItem"
)

// ShortQueueItem is the reference to a queue item, as returned when a build
// gets triggered.
type ShortQueueItem struct {
	Class string `json:"_class,omitempty"`
	URL   string `json:"url"`
}

// ID extracts the item id from the trailing `queue/item/<id>` segments of
// the URL, independent of the path Jenkins is served under.
func (s ShortQueueItem) ID() (int64, bool) {
	u, err := url.Parse(s.URL)

	if err != nil {
		return 0, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(segments)

	if n < 3 || segments[n-3] != "queue" || segments[n-2] != "item" {
		return 0, false
	}

	id, err := strconv.ParseInt(segments[n-1], 10, 64)

	if err != nil {
		return 0, false
	}

	return id, true
}

// QueueItem is an entry of the build queue. Items leave the queue once a
// build started, those keep a reference to the build in Executable.
type QueueItem struct {
	Class                      string      `json:"_class"`
	ID                         int64       `json:"id"`
	URL                        string      `json:"url"`
	Why                        string      `json:"why"`
	Params                     string      `json:"params"`
	Blocked                    bool        `json:"blocked"`
	Buildable                  bool        `json:"buildable"`
	Stuck                      bool        `json:"stuck"`
	Pending                    bool        `json:"pending"`
	Cancelled                  bool        `json:"cancelled"`
	InQueueSince               int64       `json:"inQueueSince"`
	BuildableStartMilliseconds int64       `json:"buildableStartMilliseconds"`
	Timestamp                  int64       `json:"timestamp"`
	Actions                    Actions     `json:"actions"`
	Task                       ShortJob    `json:"task"`
	Executable                 *ShortBuild `json:"executable"`
}

// Waiting returns how long the item has been queued.
func (q *QueueItem) Waiting(now time.Time) time.Duration {
	if q.InQueueSince == 0 {
		return 0
	}

	return now.Sub(time.UnixMilli(q.InQueueSince))
}

// Left reports whether the item already left the queue.
func (q *QueueItem) Left() bool {
	return q.Class == LeftItemClass || q.Executable != nil || q.Cancelled
}

// Queue is the build queue.
type Queue struct {
	Class string      `json:"_class"`
	Items []QueueItem `json:"items"`
}

// QueueClient is a client for the queue API.
type QueueClient struct {
	client *Client
}

// Get returns the build queue.
func (c *QueueClient) Get(ctx context.Context) (*Queue, error) {
	result := &Queue{}

	if err := c.client.Get(ctx, QueuePath{}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Item returns a single queue item. Jenkins keeps items around for a few
// minutes after they left the queue.
func (c *QueueClient) Item(ctx context.Context, id int64) (*QueueItem, error) {
	result := &QueueItem{}

	if err := c.client.Get(ctx, QueueItemPath{ID: id}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Full resolves a short queue item reference.
func (c *QueueClient) Full(ctx context.Context, item ShortQueueItem) (*QueueItem, error) {
	p, ok := ParsePath(c.client.endpoint, item.URL).(QueueItemPath)

	if !ok {
		return nil, &InvalidURLError{URL: item.URL, Expected: "queue item"}
	}

	return c.Item(ctx, p.ID)
}

// Cancel removes an item from the queue.
func (c *QueueClient) Cancel(ctx context.Context, id int64) error {
	if _, err := c.client.Post(ctx, CancelQueueItemPath{ID: id}, nil); err != nil {
		return fmt.Errorf("failed to cancel queue item %d: %w", id, err)
	}

	return nil
}
