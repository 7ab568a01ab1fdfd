package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/reducer"
)

const DefaultRequestTimeout = 10 * time.Second

// RemoteError is an error reported by the service.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("service returned %s: %s", e.Kind, e.Message)
}

type Client struct {
	nc       *nats.Conn
	subject  string
	Timeout  time.Duration
	Attempts uint
}

func NewClient(nc *nats.Conn, subject string) *Client {
	return &Client{nc: nc, subject: subject, Timeout: DefaultRequestTimeout, Attempts: 3}
}

// Solve sends q to the service. Requests are retried while nobody is
// listening or the service times out; a service-side error is returned as
// a *RemoteError and not retried.
func (c *Client) Solve(ctx context.Context, q reducer.Query, maxChains int) (*format.Document, error) {
	data, err := json.Marshal(Request{Pokemon: q.Pokemon, Move: q.Move, VersionGroup: q.VersionGroup, MaxChains: maxChains})
	if err != nil {
		return nil, err
	}
	msg, err := retry.DoWithData(func() (*nats.Msg, error) {
		rctx, cancel := context.WithTimeout(ctx, c.Timeout)
		defer cancel()
		m, err := c.nc.RequestWithContext(rctx, c.subject, data)
		if err != nil && !errors.Is(err, nats.ErrNoResponders) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, retry.Unrecoverable(err)
		}
		return m, err
	},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n+1).Err(err).Msg("retrying-request")
		}),
	)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &RemoteError{Kind: resp.ErrorKind, Message: resp.Error}
	}
	return resp.Document, nil
}
