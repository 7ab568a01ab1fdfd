// Package service answers solve requests over NATS request/reply.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/reducer"
)

type Request struct {
	Pokemon      string `json:"pokemon"`
	Move         string `json:"move"`
	VersionGroup string `json:"version_group"`
	// MaxChains overrides the engine's cap when positive.
	MaxChains int `json:"max_chains,omitempty"`
}

func (r Request) Query() reducer.Query {
	return reducer.Query{Pokemon: r.Pokemon, Move: r.Move, VersionGroup: r.VersionGroup}
}

// Response carries either a document or an error with its kind.
type Response struct {
	Document  *format.Document `json:"document,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
}

type Service struct {
	eng *engine.Engine
}

func New(eng *engine.Engine) *Service {
	return &Service{eng: eng}
}

func errorResponse(kind string, err error) *Response {
	return &Response{Error: err.Error(), ErrorKind: kind}
}

// Solve answers one decoded request.
func (s *Service) Solve(ctx context.Context, req Request) *Response {
	eng := s.eng
	if req.MaxChains > 0 {
		opts := eng.Options()
		opts.Solver.MaxChains = req.MaxChains
		eng = eng.WithOptions(opts)
	}
	out, err := eng.Solve(ctx, req.Query())
	if err != nil {
		return errorResponse(engine.ErrorKind(err), err)
	}
	return &Response{Document: out.Document()}
}

// Handle decodes a JSON Request and returns the encoded Response.
func (s *Service) Handle(ctx context.Context, data []byte) []byte {
	var resp *Response
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		resp = errorResponse(engine.KindBadRequest, fmt.Errorf("could not parse request: %w", err))
	} else {
		resp = s.Solve(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, but the caller still needs an answer.
		out, _ = json.Marshal(errorResponse(engine.KindInternal, err))
	}
	return out
}

// Listen serves requests on subject until ctx is done.
func (s *Service) Listen(ctx context.Context, nc *nats.Conn, subject string) error {
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("request-received")
		if err := m.Respond(s.Handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")

	<-ctx.Done()
	return sub.Unsubscribe()
}
