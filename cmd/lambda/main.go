package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/service"
	"github.com/eggmove/eggmove/snapshot"
)

var eng *engine.Engine
var nc *nats.Conn

// LambdaEvent is a solve request. When ReplyChannel is set the response is
// also published there over NATS.
type LambdaEvent struct {
	service.Request
	ReplyChannel string `json:"reply_channel,omitempty"`
}

func HandleRequest(ctx context.Context, evt LambdaEvent) (*format.Document, error) {
	logger := log.With().Str("query", evt.Query().String()).Logger()

	resp := service.New(eng).Solve(ctx, evt.Request)
	if evt.ReplyChannel != "" && nc != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("sending-via-nats")
		err = retry.Do(
			func() error {
				// Only an acknowledgement is expected back.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				logger.Err(err).Uint("n", n).Msg("did-not-receive-ack-try-again")
			}),
		)
		if err != nil {
			logger.Err(err).Msg("reply-failed")
		}
	}
	if resp.Error != "" {
		return nil, &service.RemoteError{Kind: resp.ErrorKind, Message: resp.Error}
	}
	logger.Info().Bool("feasible", resp.Document.Feasible).Msg("exiting-fn")
	return resp.Document, nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	snap, err := snapshot.Open(context.Background(), cfg.GetString(config.ConfigSnapshot),
		snapshot.OpenOptions{FetchAttempts: uint(cfg.GetInt(config.ConfigSnapshotFetchAttempts))})
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-open-snapshot")
	}
	policy, err := engine.PolicyFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-load-policy")
	}
	eng = engine.New(snap, policy, engine.OptionsFromConfig(cfg))

	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
